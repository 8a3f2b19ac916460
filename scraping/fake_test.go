package scraping

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/AravindhGoutham/NetMan/common"
	"github.com/AravindhGoutham/NetMan/snmp"
)

type fakeDevice struct {
	openErr  error
	tables   map[string]common.WalkResult
	walkErrs map[string]error
	gets     []fakeGet
}

type fakeGet struct {
	value   string
	err     error
	advance time.Duration // Simulated read latency
}

type fakePoller struct {
	mutex     sync.Mutex
	devices   map[string]*fakeDevice
	walkDelay time.Duration
	advance   func(time.Duration)

	opened    int
	closed    int
	active    int
	maxActive int
	getCalls  int
}

func newFakePoller() *fakePoller {
	return &fakePoller{devices: make(map[string]*fakeDevice)}
}

func (poller *fakePoller) Open(ctx context.Context, device common.Device) (snmp.Session, error) {
	poller.mutex.Lock()
	defer poller.mutex.Unlock()
	fake, ok := poller.devices[device.Name]
	if !ok {
		return nil, fmt.Errorf("%w: unknown device %v", snmp.ErrConnection, device.Name)
	}
	if fake.openErr != nil {
		return nil, fake.openErr
	}
	poller.opened++
	poller.active++
	if poller.active > poller.maxActive {
		poller.maxActive = poller.active
	}
	return &fakeSession{poller: poller, device: fake}, nil
}

func (poller *fakePoller) stats() (opened int, closed int, maxActive int) {
	poller.mutex.Lock()
	defer poller.mutex.Unlock()
	return poller.opened, poller.closed, poller.maxActive
}

type fakeSession struct {
	poller *fakePoller
	device *fakeDevice
	gets   int
}

func (session *fakeSession) Walk(ctx context.Context, table string) (common.WalkResult, error) {
	if session.poller.walkDelay > 0 {
		time.Sleep(session.poller.walkDelay)
	}
	if err := session.device.walkErrs[table]; err != nil {
		return nil, err
	}
	return session.device.tables[table], nil
}

func (session *fakeSession) Get(ctx context.Context, oid string) (string, error) {
	session.poller.mutex.Lock()
	session.poller.getCalls++
	session.poller.mutex.Unlock()

	if session.gets >= len(session.device.gets) {
		return "", fmt.Errorf("%w: no more values", snmp.ErrGet)
	}
	get := session.device.gets[session.gets]
	session.gets++
	if get.advance > 0 && session.poller.advance != nil {
		session.poller.advance(get.advance)
	}
	return get.value, get.err
}

func (session *fakeSession) Close() error {
	session.poller.mutex.Lock()
	defer session.poller.mutex.Unlock()
	session.poller.closed++
	session.poller.active--
	return nil
}
