package detect

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/buildwatch/buildwatch/internal/domain"
)

func matchTypes(line string) []string {
	lower := strings.ToLower(line)
	var types []string
	for _, sig := range Signatures() {
		if sig.Match(line, lower) {
			types = append(types, sig.Type)
		}
	}
	return types
}

func TestSignatures(t *testing.T) {
	t.Run("oom", func(t *testing.T) {
		assert.Contains(t, matchTypes("kernel: Out of memory: Kill process 1234"), "oom")
		assert.Contains(t, matchTypes("oom-killer invoked"), "oom")
		assert.Contains(t, matchTypes("container exited with code 137"), "oom")
	})

	t.Run("crash", func(t *testing.T) {
		assert.Contains(t, matchTypes("app crashed with segfault"), "crash")
		assert.Contains(t, matchTypes("core dump written to /tmp"), "crash")
	})

	t.Run("port conflict", func(t *testing.T) {
		types := matchTypes("bind: address already in use")
		assert.Equal(t, []string{"port_conflict"}, types)
	})

	t.Run("permission", func(t *testing.T) {
		types := matchTypes("open /var/lib/app: permission denied")
		assert.Equal(t, []string{"permission"}, types)
	})

	t.Run("connection", func(t *testing.T) {
		assert.Contains(t, matchTypes("dial tcp 127.0.0.1:5432: connection refused"), "connection")
		assert.Contains(t, matchTypes("Cannot connect to broker"), "connection")
	})

	t.Run("case insensitive", func(t *testing.T) {
		assert.Contains(t, matchTypes("OUT OF MEMORY"), "oom")
		assert.Contains(t, matchTypes("Permission Denied"), "permission")
	})

	t.Run("clean line matches nothing", func(t *testing.T) {
		assert.Empty(t, matchTypes("server listening on :8080"))
	})

	t.Run("severities", func(t *testing.T) {
		severities := map[string]domain.Severity{}
		for _, sig := range Signatures() {
			severities[sig.Type] = sig.Severity
		}
		require.Len(t, severities, 5)
		assert.Equal(t, domain.SeverityCritical, severities["oom"])
		assert.Equal(t, domain.SeverityCritical, severities["crash"])
		assert.Equal(t, domain.SeverityError, severities["port_conflict"])
		assert.Equal(t, domain.SeverityError, severities["permission"])
		assert.Equal(t, domain.SeverityWarning, severities["connection"])
	})
}
