package snapshot

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AravindhGoutham/NetMan/common"
)

func testSnapshot() *common.FleetSnapshot {
	r2 := common.RouterSnapshot{
		Device: common.Device{Name: "R2"},
		Interfaces: []common.InterfaceRecord{
			{Index: 3, Name: "Loopback0", IPv4: "10.255.0.2", IPv6: []string{}, LinkState: common.LinkStateUp},
			{Index: 1, Name: "Gi0/0", IPv6: []string{"2001:0db8:0000:0000:0000:0000:0000:0001", "fe80:0000:0000:0000:0000:0000:0000:0001"}, LinkState: common.LinkStateDown},
			{Index: 2, Name: "Gi0/1", IPv6: []string{}, LinkState: common.LinkStateUp},
		},
	}
	r1 := common.RouterSnapshot{
		Device: common.Device{Name: "R1"},
		Interfaces: []common.InterfaceRecord{
			{Index: 1, Name: "Gi0/0", IPv4: "10.0.0.1", IPv6: []string{}},
		},
	}
	return &common.FleetSnapshot{
		Routers: []common.RouterSnapshot{r2, r1},
		Status:  []common.DeviceStatus{r2.StatusView(), r1.StatusView()},
	}
}

func TestRender(t *testing.T) {
	data, err := Render(testSnapshot())
	require.NoError(t, err)

	expected := `{
    "schema_version": 1,
    "network": {
        "R2": {
            "Loopback0": {
                "v4": "10.255.0.2",
                "v6": []
            },
            "Gi0/0": {
                "v6": [
                    "2001:0db8:0000:0000:0000:0000:0000:0001",
                    "fe80:0000:0000:0000:0000:0000:0000:0001"
                ]
            }
        },
        "R1": {
            "Gi0/0": {
                "v4": "10.0.0.1",
                "v6": []
            }
        }
    },
    "interface_status": {
        "R2": {
            "Loopback0": "Up",
            "Gi0/0": "Down",
            "Gi0/1": "Up"
        },
        "R1": {}
    }
}
`
	assert.Equal(t, expected, string(data))
}

func TestRender_Empty(t *testing.T) {
	for _, snapshot := range []*common.FleetSnapshot{nil, {}} {
		data, err := Render(snapshot)
		require.NoError(t, err)
		assert.JSONEq(t, `{"schema_version": 1, "network": {}, "interface_status": {}}`, string(data))
	}
}

func TestBuild_DoesNotAliasRecords(t *testing.T) {
	snapshot := testSnapshot()
	document := Build(snapshot)
	snapshot.Routers[0].Interfaces[1].IPv6[0] = "changed"

	interfaces, ok := document.Network.Get("R2")
	require.True(t, ok)
	addresses, ok := interfaces.Get("Gi0/0")
	require.True(t, ok)
	assert.Equal(t, "2001:0db8:0000:0000:0000:0000:0000:0001", addresses.V6[0])
}

func TestWriteAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "network_data.json")
	require.NoError(t, os.WriteFile(path, []byte("stale"), 0o644))

	require.NoError(t, Write(testSnapshot(), path))

	document, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, SchemaVersion, document.SchemaVersion)

	var devices []string
	for pair := document.Network.Oldest(); pair != nil; pair = pair.Next() {
		devices = append(devices, pair.Key)
	}
	assert.Equal(t, []string{"R2", "R1"}, devices, "configured device order")

	states, ok := document.InterfaceStatus.Get("R2")
	require.True(t, ok)
	var names []string
	for pair := states.Oldest(); pair != nil; pair = pair.Next() {
		names = append(names, pair.Key+"="+pair.Value)
	}
	assert.Equal(t, []string{"Loopback0=Up", "Gi0/0=Down", "Gi0/1=Up"}, names)

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temporary files left behind")
}

func TestLoad_RejectsUnknownSchema(t *testing.T) {
	path := filepath.Join(t.TempDir(), "network_data.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"schema_version": 2, "network": {}, "interface_status": {}}`), 0o644))

	_, err := Load(path)
	assert.ErrorContains(t, err, "unsupported snapshot schema version")
}
