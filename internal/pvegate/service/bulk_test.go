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

const bulkResourcesBody = `{"data":[
	{"id":"qemu/100","type":"qemu","node":"n1","vmid":100,"status":"running"},
	{"id":"qemu/101","type":"qemu","node":"n1","vmid":101,"status":"running"},
	{"id":"qemu/102","type":"qemu","node":"n1","vmid":102,"status":"running"},
	{"id":"qemu/110","type":"qemu","node":"n1","vmid":110,"status":"stopped"},
	{"id":"lxc/200","type":"lxc","node":"n2","vmid":200,"status":"stopped"}
]}`

const upidBody = `{"data":"UPID:n1:000F4240:0000:65F0A1B2:qmstart:100:root@pam:"}`

func newBulkService(client *pveclient.MockCaller) *BulkService {
	return NewBulkService(client, NewInventoryService(client))
}

func withInventory(client *pveclient.MockCaller) {
	client.On("Call", mock.Anything, mock.Anything, resourcesCall()).
		Return(pveclient.JSONResponse(http.StatusOK, bulkResourcesBody), nil).Once()
}

func TestBulkService_Execute_SkipPolicy(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		action     entity.BulkAction
		target     string
		wantDetail string
	}{
		{name: "start on running", action: entity.BulkActionStart, target: "n1|qemu|100", wantDetail: "n1/100 skipped (already running)"},
		{name: "poweroff on stopped", action: entity.BulkActionPoweroff, target: "n1|qemu|110", wantDetail: "n1/110 skipped (not running)"},
		{name: "reboot on stopped", action: entity.BulkActionReboot, target: "n2|lxc|200", wantDetail: "n2/200 skipped (not running)"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			client := pveclient.NewMockCaller()
			withInventory(client)

			result, err := newBulkService(client).Execute(testContext(), testSession(), &entity.BulkActionRequest{
				Action: tt.action,
				VMs:    []string{tt.target},
			})
			require.NoError(t, err)

			resp := result.Response()
			assert.Equal(t, 0, resp.Done)
			assert.Equal(t, 0, resp.Failed)
			assert.Equal(t, 1, resp.Skipped)
			assert.Equal(t, []string{tt.wantDetail}, resp.SkipDetails)
			// 只有状态预取一次上游调用
			client.AssertNumberOfCalls(t, "Call", 1)
		})
	}
}

func TestBulkService_Execute_FailFastOnUnauthorized(t *testing.T) {
	t.Parallel()

	client := pveclient.NewMockCaller()
	withInventory(client)
	client.On("Call", mock.Anything, mock.Anything, statusCall("n1", "qemu", "100", "stop")).
		Return(pveclient.JSONResponse(http.StatusOK, upidBody), nil).Once()
	client.On("Call", mock.Anything, mock.Anything, statusCall("n1", "qemu", "101", "stop")).
		Return(pveclient.JSONResponse(http.StatusUnauthorized, ""), nil).Once()

	result, err := newBulkService(client).Execute(testContext(), testSession(), &entity.BulkActionRequest{
		Action: entity.BulkActionPoweroff,
		VMs:    []string{"n1|qemu|100", "n1|qemu|101", "n1|qemu|102"},
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, apierror.ErrUpstreamRejected))
	assert.Nil(t, result)

	client.AssertExpectations(t)
	client.AssertNotCalled(t, "Call", mock.Anything, mock.Anything, statusCall("n1", "qemu", "102", "stop"))
}

func TestBulkService_Execute_PartialFailure(t *testing.T) {
	t.Parallel()

	client := pveclient.NewMockCaller()
	withInventory(client)
	client.On("Call", mock.Anything, mock.Anything, statusCall("n1", "qemu", "100", "stop")).
		Return(pveclient.JSONResponse(http.StatusOK, upidBody), nil).Once()
	client.On("Call", mock.Anything, mock.Anything, statusCall("n1", "qemu", "101", "stop")).
		Return(pveclient.JSONResponse(http.StatusInternalServerError, ""), nil).Once()
	client.On("Call", mock.Anything, mock.Anything, statusCall("n1", "qemu", "102", "stop")).
		Return(pveclient.JSONResponse(http.StatusOK, upidBody), nil).Once()

	result, err := newBulkService(client).Execute(testContext(), testSession(), &entity.BulkActionRequest{
		Action: entity.BulkActionPoweroff,
		VMs:    []string{"n1|qemu|100", "n1|qemu|101", "n1|qemu|102"},
	})
	require.NoError(t, err)

	resp := result.Response()
	assert.Equal(t, 2, resp.Done)
	assert.Equal(t, 1, resp.Failed)
	assert.Equal(t, 0, resp.Skipped)
	assert.Equal(t, []string{"n1/101 poweroff failed (HTTP 500)"}, resp.FailureDetails)
	assert.Equal(t, []string{"n1/100 poweroff ok", "n1/102 poweroff ok"}, resp.SuccessDetails)
	client.AssertExpectations(t)
}

func TestBulkService_Execute_PerItemFailures(t *testing.T) {
	t.Parallel()

	client := pveclient.NewMockCaller()
	withInventory(client)
	client.On("Call", mock.Anything, mock.Anything, statusCall("n1", "qemu", "110", "start")).
		Return(nil, errors.New("connection reset")).Once()

	result, err := newBulkService(client).Execute(testContext(), testSession(), &entity.BulkActionRequest{
		Action: entity.BulkActionStart,
		VMs:    []string{"garbage", "n9|openvz|300", "n1|qemu|110"},
	})
	require.NoError(t, err)

	resp := result.Response()
	assert.Equal(t, 0, resp.Done)
	assert.Equal(t, 3, resp.Failed)
	assert.Equal(t, []string{
		"garbage invalid selection",
		"n9/300 start failed (unsupported type)",
		"n1/110 start failed (connection reset)",
	}, resp.FailureDetails)
	client.AssertExpectations(t)
}

func TestBulkService_Execute_UnknownAction(t *testing.T) {
	t.Parallel()

	client := pveclient.NewMockCaller()
	withInventory(client)

	result, err := newBulkService(client).Execute(testContext(), testSession(), &entity.BulkActionRequest{
		Action: "suspend",
		VMs:    []string{"n1|qemu|100"},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"n1/100 suspend failed (unsupported action)"}, result.Details(entity.BulkOutcomeFailed))
	client.AssertNumberOfCalls(t, "Call", 1)
}

func TestBulkService_Execute_MixedCaseAction(t *testing.T) {
	t.Parallel()

	client := pveclient.NewMockCaller()
	withInventory(client)
	client.On("Call", mock.Anything, mock.Anything, statusCall("n2", "lxc", "200", "start")).
		Return(pveclient.JSONResponse(http.StatusOK, upidBody), nil).Once()

	result, err := newBulkService(client).Execute(testContext(), testSession(), &entity.BulkActionRequest{
		Action: " Start",
		VMs:    []string{"n1|qemu|100", "n2|lxc|200"},
	})
	require.NoError(t, err)
	assert.Equal(t, entity.BulkActionStart, result.Action)
	assert.Equal(t, []string{"n2/200 start ok"}, result.Details(entity.BulkOutcomeDone))
	assert.Equal(t, []string{"n1/100 skipped (already running)"}, result.Details(entity.BulkOutcomeSkipped))
	assert.Empty(t, result.Details(entity.BulkOutcomeFailed))
	client.AssertExpectations(t)
}

func TestBulkService_Execute_RebootPath(t *testing.T) {
	t.Parallel()

	client := pveclient.NewMockCaller()
	withInventory(client)
	client.On("Call", mock.Anything, mock.Anything, statusCall("n1", "qemu", "100", "reboot")).
		Return(pveclient.JSONResponse(http.StatusOK, upidBody), nil).Once()

	result, err := newBulkService(client).Execute(testContext(), testSession(), &entity.BulkActionRequest{
		Action: entity.BulkActionReboot,
		VMs:    []string{"n1|qemu|100"},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Count(entity.BulkOutcomeDone))
	client.AssertExpectations(t)
}

func TestBulkService_Execute_PrefetchFailure(t *testing.T) {
	t.Parallel()

	t.Run("unavailable inventory disables skip rules", func(t *testing.T) {
		t.Parallel()

		client := pveclient.NewMockCaller()
		client.On("Call", mock.Anything, mock.Anything, resourcesCall()).
			Return(pveclient.JSONResponse(http.StatusBadGateway, ""), nil).Once()
		client.On("Call", mock.Anything, mock.Anything, statusCall("n1", "qemu", "100", "start")).
			Return(pveclient.JSONResponse(http.StatusOK, upidBody), nil).Once()

		result, err := newBulkService(client).Execute(testContext(), testSession(), &entity.BulkActionRequest{
			Action: entity.BulkActionStart,
			VMs:    []string{"n1|qemu|100"},
		})
		require.NoError(t, err)
		assert.Equal(t, 1, result.Count(entity.BulkOutcomeDone))
		client.AssertExpectations(t)
	})

	t.Run("unauthorized inventory aborts", func(t *testing.T) {
		t.Parallel()

		client := pveclient.NewMockCaller()
		client.On("Call", mock.Anything, mock.Anything, resourcesCall()).
			Return(pveclient.JSONResponse(http.StatusUnauthorized, ""), nil).Once()

		result, err := newBulkService(client).Execute(testContext(), testSession(), &entity.BulkActionRequest{
			Action: entity.BulkActionStart,
			VMs:    []string{"n1|qemu|100"},
		})
		assert.True(t, errors.Is(err, apierror.ErrUpstreamRejected))
		assert.Nil(t, result)
		client.AssertNumberOfCalls(t, "Call", 1)
	})
}

func TestBulkService_Execute_Validation(t *testing.T) {
	t.Parallel()

	client := pveclient.NewMockCaller()
	_, err := newBulkService(client).Execute(testContext(), testSession(), &entity.BulkActionRequest{Action: entity.BulkActionStart})
	assert.True(t, errors.Is(err, apierror.ErrValidation))
	client.AssertNotCalled(t, "Call", mock.Anything, mock.Anything, mock.Anything)
}
