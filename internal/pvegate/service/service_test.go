package service

import (
	"bytes"
	"context"
	"net/http"

	"github.com/jimyag/pvegate/internal/pvegate/entity"
	"github.com/jimyag/pvegate/pkg/idgen"
	"github.com/jimyag/pvegate/pkg/pveclient"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/mock"
)

const testRequestID = "req-7"

var testCreds = pveclient.Credentials{Ticket: "PVE:root@pam:65F0A1B2::sig", CSRFToken: "65F0A1B2:csrf"}

func testContext() context.Context {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)
	return idgen.WithRequestID(logger.WithContext(context.Background()), testRequestID)
}

func testSession() entity.Session {
	return entity.Session{UpstreamHost: "pve.lan", UpstreamPort: "8006", AuthRealm: "pam"}.
		WithCredentials("root@pam", testCreds, fixedNow())
}

// call 匹配指定方法和路径的上游请求
func call(method, path string) any {
	return mock.MatchedBy(func(r *pveclient.Request) bool {
		return r.Method == method && r.Path == path
	})
}

func resourcesCall() any {
	return call(http.MethodGet, pveclient.PathClusterResources)
}

func statusCall(node, vmType, vmid, command string) any {
	return call(http.MethodPost, pveclient.StatusPath(node, vmType, vmid, command))
}
