package snmp

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gosnmp/gosnmp"

	"github.com/AravindhGoutham/NetMan/common"
	"github.com/AravindhGoutham/NetMan/oid"
)

// DefaultPort - Standard SNMP agent port.
const DefaultPort = 161

// oidSysUpTime - Probed when opening a session to check that the agent answers.
const oidSysUpTime = "1.3.6.1.2.1.1.3.0"

// GoSNMPPoller - Poller backed by gosnmp.
type GoSNMPPoller struct {
	credentials map[string]common.Credential
	timeout     time.Duration
	retries     int
}

// NewGoSNMPPoller - Create a poller using the given credentials (by credential ID).
func NewGoSNMPPoller(credentials map[string]common.Credential, timeout time.Duration, retries int) *GoSNMPPoller {
	return &GoSNMPPoller{
		credentials: credentials,
		timeout:     timeout,
		retries:     retries,
	}
}

// Open - Connect to the device and probe it. Every failure wraps ErrConnection.
func (poller *GoSNMPPoller) Open(ctx context.Context, device common.Device) (Session, error) {
	credential, ok := poller.credentials[device.CredentialID]
	if !ok {
		return nil, fmt.Errorf("%w: credential not found: %v", ErrConnection, device.CredentialID)
	}
	g, err := poller.newGoSNMP(device, credential)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConnection, err)
	}
	g.Context = ctx

	if err := g.Connect(); err != nil {
		return nil, fmt.Errorf("%w: connect to %v: %v", ErrConnection, device.Address, err)
	}
	session := &goSNMPSession{g: g}

	// UDP "connects" never fail, so ask for something every agent has
	if _, err := session.Get(ctx, oidSysUpTime); err != nil {
		session.Close()
		return nil, fmt.Errorf("%w: %v not responding: %v", ErrConnection, device.Address, err)
	}
	return session, nil
}

// newGoSNMP creates a configured but unconnected GoSNMP instance.
func (poller *GoSNMPPoller) newGoSNMP(device common.Device, credential common.Credential) (*gosnmp.GoSNMP, error) {
	port := uint16(DefaultPort)
	if device.Port > 0 {
		if device.Port > 65535 {
			return nil, fmt.Errorf("invalid port %v", device.Port)
		}
		port = uint16(device.Port)
	}

	g := &gosnmp.GoSNMP{
		Target:             device.Address,
		Port:               port,
		Transport:          "udp",
		Timeout:            poller.timeout,
		Retries:            poller.retries,
		MaxOids:            gosnmp.MaxOids,
		MaxRepetitions:     25,
		ExponentialTimeout: true,
	}

	switch credential.Version() {
	case common.SNMPVersion2c:
		g.Version = gosnmp.Version2c
		g.Community = credential.Community

	case common.SNMPVersion3:
		g.Version = gosnmp.Version3
		g.SecurityModel = gosnmp.UserSecurityModel

		switch credential.SecurityLevel {
		case "noAuthNoPriv":
			g.MsgFlags = gosnmp.NoAuthNoPriv
		case "authNoPriv":
			g.MsgFlags = gosnmp.AuthNoPriv
		default:
			g.MsgFlags = gosnmp.AuthPriv
		}

		g.SecurityParameters = &gosnmp.UsmSecurityParameters{
			UserName:                 credential.Username,
			AuthenticationProtocol:   mapAuthProtocol(credential.AuthProtocol),
			AuthenticationPassphrase: credential.AuthPassword,
			PrivacyProtocol:          mapPrivProtocol(credential.PrivProtocol),
			PrivacyPassphrase:        credential.PrivPassword,
		}

	default:
		return nil, fmt.Errorf("unsupported SNMP version: %v", credential.SNMPVersion)
	}

	return g, nil
}

// mapAuthProtocol converts an auth protocol name to the gosnmp constant, SHA by default.
func mapAuthProtocol(s string) gosnmp.SnmpV3AuthProtocol {
	switch strings.ToUpper(s) {
	case "MD5":
		return gosnmp.MD5
	case "SHA-224", "SHA224":
		return gosnmp.SHA224
	case "SHA-256", "SHA256":
		return gosnmp.SHA256
	case "SHA-384", "SHA384":
		return gosnmp.SHA384
	case "SHA-512", "SHA512":
		return gosnmp.SHA512
	default:
		return gosnmp.SHA
	}
}

// mapPrivProtocol converts a privacy protocol name to the gosnmp constant, AES-128 by default.
func mapPrivProtocol(s string) gosnmp.SnmpV3PrivProtocol {
	switch strings.ToUpper(s) {
	case "DES":
		return gosnmp.DES
	case "AES-192", "AES192":
		return gosnmp.AES192
	case "AES-256", "AES256":
		return gosnmp.AES256
	case "AES-192C", "AES192C":
		return gosnmp.AES192C
	case "AES-256C", "AES256C":
		return gosnmp.AES256C
	default:
		return gosnmp.AES
	}
}

type goSNMPSession struct {
	g *gosnmp.GoSNMP
}

func (session *goSNMPSession) Walk(ctx context.Context, root string) (common.WalkResult, error) {
	session.g.Context = ctx
	pdus, err := session.g.BulkWalkAll(root)
	if err != nil {
		return nil, fmt.Errorf("%w: %v: %v", ErrWalk, root, err)
	}

	result := make(common.WalkResult, 0, len(pdus))
	for _, pdu := range pdus {
		if isEmptyValue(pdu) {
			continue
		}
		result = append(result, common.WalkEntry{
			OID:   oid.Normalize(pdu.Name),
			Value: formatValue(pdu),
		})
	}
	return result, nil
}

func (session *goSNMPSession) Get(ctx context.Context, target string) (string, error) {
	session.g.Context = ctx
	packet, err := session.g.Get([]string{target})
	if err != nil {
		return "", fmt.Errorf("%w: %v: %v", ErrGet, target, err)
	}
	if packet.Error != gosnmp.NoError {
		return "", fmt.Errorf("%w: %v: agent returned %v", ErrGet, target, packet.Error)
	}
	if len(packet.Variables) != 1 {
		return "", fmt.Errorf("%w: %v: expected 1 variable, got %v", ErrGet, target, len(packet.Variables))
	}
	pdu := packet.Variables[0]
	if isEmptyValue(pdu) {
		return "", fmt.Errorf("%w: %v: no value (%v)", ErrGet, target, pdu.Type)
	}
	return formatValue(pdu), nil
}

func (session *goSNMPSession) Close() error {
	if session.g.Conn == nil {
		return nil
	}
	return session.g.Conn.Close()
}

func isEmptyValue(pdu gosnmp.SnmpPDU) bool {
	switch pdu.Type {
	case gosnmp.NoSuchObject, gosnmp.NoSuchInstance, gosnmp.EndOfMibView, gosnmp.Null:
		return true
	}
	return false
}

// formatValue renders a PDU value the way the correlator expects it: text for strings, decimal for numbers.
func formatValue(pdu gosnmp.SnmpPDU) string {
	switch pdu.Type {
	case gosnmp.OctetString, gosnmp.BitString, gosnmp.Opaque:
		if b, ok := pdu.Value.([]byte); ok {
			return string(b)
		}
	case gosnmp.Integer, gosnmp.Counter32, gosnmp.Gauge32, gosnmp.TimeTicks, gosnmp.Counter64, gosnmp.Uinteger32:
		return gosnmp.ToBigInt(pdu.Value).String()
	case gosnmp.ObjectIdentifier:
		if s, ok := pdu.Value.(string); ok {
			return oid.Normalize(s)
		}
	}
	switch v := pdu.Value.(type) {
	case nil:
		return ""
	case string:
		return v
	case []byte:
		return string(v)
	default:
		return fmt.Sprintf("%v", v)
	}
}
