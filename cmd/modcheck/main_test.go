package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"solana-token-feed/internal/moderation"
)

func TestRun_LocalOnly(t *testing.T) {
	in := strings.NewReader("cool dog coin\nhot porn token\n\nkick.trade airdrop\n")
	var out bytes.Buffer

	blocked, err := run(context.Background(), in, &out, moderation.DefaultLocalGate(), nil, 0)
	require.NoError(t, err)
	assert.Equal(t, 2, blocked)

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "ok\tlocal\t-\tcool dog coin", lines[0])
	assert.Equal(t, "blocked\tlocal\tlexical:porn\thot porn token", lines[1])
	assert.True(t, strings.HasPrefix(lines[2], "blocked\tlocal\t"), lines[2])
}

func TestRun_WithRemote(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req moderation.ModerateRequest
		json.NewDecoder(r.Body).Decode(&req)
		flagged := strings.Contains(req.Text, "scam")
		json.NewEncoder(w).Encode(moderation.ModerateResponse{
			Results: []moderation.ModerateResult{{Flagged: flagged}},
		})
	}))
	defer srv.Close()

	gate := moderation.DefaultLocalGate()
	checker := moderation.NewChecker(moderation.CheckerOptions{
		Gate:       gate,
		Limiter:    moderation.NewRateLimiter(10 * time.Millisecond),
		Classifier: moderation.NewRemoteClient(srv.URL),
	})

	var out bytes.Buffer
	blocked, err := run(context.Background(), strings.NewReader("friendly coin\nscam coin\n"), &out, gate, checker, 20*time.Millisecond)
	require.NoError(t, err)
	assert.Equal(t, 1, blocked)

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "ok\tremote\t-\tfriendly coin", lines[0])
	assert.Equal(t, "blocked\tremote\t-\tscam coin", lines[1])
}
