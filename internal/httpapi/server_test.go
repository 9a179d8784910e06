// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Stoneforge Contributors

package httpapi_test

import (
	"context"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stoneforge/stoneforge/internal/httpapi"
)

func TestServer_StartAndStop(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	srv := httpapi.NewServer("localhost:0", handler)

	errCh, err := srv.Start()
	require.NoError(t, err)
	require.NotEmpty(t, srv.Addr())

	resp, err := http.Get(fmt.Sprintf("http://%s/", srv.Addr()))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, srv.Stop(ctx))

	// The error channel closes cleanly after shutdown.
	select {
	case err, ok := <-errCh:
		if ok {
			require.NoError(t, err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("error channel did not close after Stop")
	}
}

func TestServer_StartTwiceFails(t *testing.T) {
	srv := httpapi.NewServer("localhost:0", http.NewServeMux())

	_, err := srv.Start()
	require.NoError(t, err)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = srv.Stop(ctx)
	})

	_, err = srv.Start()
	assert.Error(t, err)
}

func TestServer_StopWithoutStart(t *testing.T) {
	srv := httpapi.NewServer("localhost:0", http.NewServeMux())
	assert.NoError(t, srv.Stop(context.Background()))
}
