package provisioning

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
	"golang.org/x/crypto/ssh"

	"github.com/AravindhGoutham/NetMan/common"
)

// ErrSSH - Returned (wrapped) when an SSH connection or command fails.
var ErrSSH = errors.New("ssh failure")

// DefaultSSHPort - Port used when the device has none.
const DefaultSSHPort = 22

// Shell - Command channel to one router.
type Shell interface {
	// Run runs one exec mode command and returns its output lines.
	Run(ctx context.Context, command string) ([]string, error)
	// Configure enters configuration mode, sends the commands and returns the output lines.
	Configure(ctx context.Context, commands []string) ([]string, error)
	Close() error
}

// Dialer - Opens shells to devices.
type Dialer interface {
	Dial(ctx context.Context, device common.Device, credential common.Credential) (Shell, error)
}

// SSHDialer - Dialer using SSH.
type SSHDialer struct {
	Timeout time.Duration
}

type sshShell struct {
	device common.Device
	client *ssh.Client
}

// Dial - Connect and authenticate with the SSH part of the credential.
func (dialer SSHDialer) Dial(ctx context.Context, device common.Device, credential common.Credential) (Shell, error) {
	config, err := newSSHClientConfig(credential, dialer.Timeout)
	if err != nil {
		return nil, err
	}

	port := uint(DefaultSSHPort)
	if device.Port > 0 {
		port = device.Port
	}
	fullAddress := net.JoinHostPort(device.Address, strconv.FormatUint(uint64(port), 10))

	netDialer := net.Dialer{Timeout: dialer.Timeout}
	conn, err := netDialer.DialContext(ctx, "tcp", fullAddress)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to connect to %v: %v", ErrSSH, fullAddress, err)
	}
	clientConn, channels, requests, err := ssh.NewClientConn(conn, fullAddress, config)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("%w: failed to authenticate to %v: %v", ErrSSH, fullAddress, err)
	}

	log.WithFields(log.Fields{
		"device":         device.Name,
		"device_address": fullAddress,
	}).Debug("SSH connected")
	return &sshShell{
		device: device,
		client: ssh.NewClient(clientConn, channels, requests),
	}, nil
}

func newSSHClientConfig(credential common.Credential, timeout time.Duration) (*ssh.ClientConfig, error) {
	authMethods := make([]ssh.AuthMethod, 0)
	if credential.SSHPassword != "" {
		authMethods = append(authMethods, ssh.Password(credential.SSHPassword))
	}
	if credential.SSHPrivateKeyPath != "" {
		privateKey, err := os.ReadFile(credential.SSHPrivateKeyPath)
		if err != nil {
			return nil, fmt.Errorf("%w: failed to read SSH private key %v: %v", ErrSSH, credential.SSHPrivateKeyPath, err)
		}
		signer, err := ssh.ParsePrivateKey(privateKey)
		if err != nil {
			return nil, fmt.Errorf("%w: failed to parse SSH private key %v: %v", ErrSSH, credential.SSHPrivateKeyPath, err)
		}
		authMethods = append(authMethods, ssh.PublicKeys(signer))
	}
	if credential.SSHUsername == "" || len(authMethods) == 0 {
		return nil, fmt.Errorf("%w: credential has no SSH username, password or key", ErrSSH)
	}
	return &ssh.ClientConfig{
		User:            credential.SSHUsername,
		Auth:            authMethods,
		HostKeyCallback: ssh.InsecureIgnoreHostKey(),
		Timeout:         timeout,
	}, nil
}

// Run - One SSH session per command. IOS closes exec sessions after the command.
func (shell *sshShell) Run(ctx context.Context, command string) ([]string, error) {
	session, err := shell.client.NewSession()
	if err != nil {
		return nil, fmt.Errorf("%w: failed to start session: %v", ErrSSH, err)
	}
	defer session.Close()
	stop := closeOnDone(ctx, session)
	defer stop()

	var stdout, stderr bytes.Buffer
	session.Stdout = &stdout
	session.Stderr = &stderr
	if err := session.Run(command); err != nil {
		return nil, fmt.Errorf("%w: failed to run command %q: %v", ErrSSH, command, err)
	}
	shell.logStderr(stderr.String())
	return splitLines(stdout.String()), nil
}

// Configure - Send the commands through an interactive shell wrapped in "configure terminal" and "end".
func (shell *sshShell) Configure(ctx context.Context, commands []string) ([]string, error) {
	session, err := shell.client.NewSession()
	if err != nil {
		return nil, fmt.Errorf("%w: failed to start session: %v", ErrSSH, err)
	}
	defer session.Close()
	stop := closeOnDone(ctx, session)
	defer stop()

	stdin, err := session.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("%w: failed to get STDIN pipe: %v", ErrSSH, err)
	}
	var stdout, stderr bytes.Buffer
	session.Stdout = &stdout
	session.Stderr = &stderr
	if err := session.Shell(); err != nil {
		return nil, fmt.Errorf("%w: failed to start shell: %v", ErrSSH, err)
	}

	script := make([]string, 0, len(commands)+4)
	script = append(script, "terminal length 0", "configure terminal")
	script = append(script, commands...)
	script = append(script, "end", "exit")
	for _, line := range script {
		if _, err := fmt.Fprintf(stdin, "%s\n", line); err != nil {
			return nil, fmt.Errorf("%w: failed to send %q: %v", ErrSSH, line, err)
		}
	}
	stdin.Close()

	if err := session.Wait(); err != nil {
		var exitMissing *ssh.ExitMissingError
		if !errors.As(err, &exitMissing) {
			return nil, fmt.Errorf("%w: shell failed: %v", ErrSSH, err)
		}
	}
	shell.logStderr(stderr.String())
	return splitLines(stdout.String()), nil
}

func (shell *sshShell) Close() error {
	return shell.client.Close()
}

func (shell *sshShell) logStderr(text string) {
	for _, line := range splitLines(text) {
		log.WithFields(log.Fields{
			"device": shell.device.Name,
		}).Tracef("Received line on STDERR: %v", line)
	}
}

// closeOnDone closes the session if the context ends first. The returned function stops watching.
func closeOnDone(ctx context.Context, session *ssh.Session) func() {
	done := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			session.Close()
		case <-done:
		}
	}()
	return func() { close(done) }
}

// splitLines splits output into lines without carriage returns or a trailing empty line.
func splitLines(text string) []string {
	text = strings.ReplaceAll(text, "\r", "")
	text = strings.TrimSuffix(text, "\n")
	if text == "" {
		return []string{}
	}
	return strings.Split(text, "\n")
}
