package service

import (
	"errors"
	"testing"

	"github.com/jimyag/pvegate/internal/pvegate/entity"
	"github.com/jimyag/pvegate/pkg/apierror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConsoleService_ConsoleURL(t *testing.T) {
	t.Parallel()

	svc := NewConsoleService("")

	got, err := svc.ConsoleURL(&entity.OpenConsoleRequest{Node: "pve1", VMID: "100"})
	require.NoError(t, err)
	assert.Equal(t, "/proxmox/?console=kvm&novnc=1&node=pve1&vmid=100&resize=scale", got)

	got, err = NewConsoleService("/console/").ConsoleURL(&entity.OpenConsoleRequest{Node: "node a", VMID: " 7 "})
	require.NoError(t, err)
	assert.Equal(t, "/console/?console=kvm&novnc=1&node=node+a&vmid=7&resize=scale", got)

	for _, req := range []*entity.OpenConsoleRequest{
		{VMID: "100"},
		{Node: "pve1"},
		{Node: "pve1", VMID: "10a"},
		{Node: "pve1", VMID: "-1"},
	} {
		_, err := svc.ConsoleURL(req)
		assert.True(t, errors.Is(err, apierror.ErrValidation), "%+v", req)
	}
}
