package service

import (
	"errors"
	"net/http"
	"testing"

	"github.com/jimyag/pvegate/internal/pvegate/entity"
	"github.com/jimyag/pvegate/pkg/apierror"
	"github.com/jimyag/pvegate/pkg/pveclient"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const resourcesBody = `{"data":[
	{"id":"qemu/100","type":"qemu","node":"n1","vmid":100,"name":"web","status":"running","template":0},
	{"id":"qemu/900","type":"qemu","node":"n1","vmid":900,"name":"tpl-vm","status":"stopped","template":1},
	{"id":"lxc/200","type":"lxc","node":"n2","vmid":200,"name":"ct","status":"stopped"},
	{"id":"lxc/901","type":"lxc","node":"n2","vmid":901,"name":"tpl-ct","status":"stopped","template":true},
	{"id":"openvz/300","type":"openvz","node":"n1","vmid":300,"name":"legacy","status":"running"},
	{"id":"qemu/400","type":"qemu","vmid":400,"name":"orphan","status":"running"}
]}`

func TestInventoryService_ListVMs(t *testing.T) {
	t.Parallel()

	client := pveclient.NewMockCaller()
	client.On("Call", mock.Anything, testSession().Endpoint(), mock.MatchedBy(func(r *pveclient.Request) bool {
		return r.Path == pveclient.PathClusterResources &&
			r.Params.Get("type") == "vm" &&
			r.Credentials == testCreds
	})).Return(pveclient.JSONResponse(http.StatusOK, resourcesBody), nil).Once()

	vms, err := NewInventoryService(client).ListVMs(testContext(), testSession())
	require.NoError(t, err)

	// 只保留非模板的 qemu 和 lxc，缺少 node 的行被丢弃
	assert.Equal(t, []entity.VM{
		{Node: "n1", VMID: 100, Status: "running", Name: "web", Type: "qemu"},
		{Node: "n2", VMID: 200, Status: "stopped", Name: "ct", Type: "lxc"},
	}, vms)
	client.AssertExpectations(t)
}

func TestInventoryService_ListVMs_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		resp     *pveclient.Response
		err      error
		rejected bool
	}{
		{name: "unauthorized", resp: pveclient.JSONResponse(http.StatusUnauthorized, ""), rejected: true},
		{name: "server error soft-fails", resp: pveclient.JSONResponse(http.StatusInternalServerError, "boom")},
		{name: "transport error soft-fails", err: errors.New("connection refused")},
		{name: "bad payload soft-fails", resp: pveclient.JSONResponse(http.StatusOK, `{"data":"nope"}`)},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			client := pveclient.NewMockCaller()
			client.On("Call", mock.Anything, mock.Anything, resourcesCall()).Return(tt.resp, tt.err).Once()

			vms, err := NewInventoryService(client).ListVMs(testContext(), testSession())
			if tt.rejected {
				assert.True(t, errors.Is(err, apierror.ErrUpstreamRejected))
				assert.Nil(t, vms)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, vms)
			assert.Empty(t, vms)
		})
	}
}

func TestInventoryService_StatusSnapshot(t *testing.T) {
	t.Parallel()

	client := pveclient.NewMockCaller()
	client.On("Call", mock.Anything, mock.Anything, resourcesCall()).
		Return(pveclient.JSONResponse(http.StatusOK, resourcesBody), nil).Once()

	snapshot, err := NewInventoryService(client).StatusSnapshot(testContext(), testSession())
	require.NoError(t, err)

	vm, ok := snapshot.Lookup("n1", "100")
	assert.True(t, ok)
	assert.True(t, vm.Running())
	assert.Equal(t, "qemu", vm.Type)

	vm, ok = snapshot.Lookup("n2", "200")
	assert.True(t, ok)
	assert.False(t, vm.Running())
	assert.Equal(t, "stopped", vm.Status)

	_, ok = snapshot.Lookup("n1", "999")
	assert.False(t, ok)
}
