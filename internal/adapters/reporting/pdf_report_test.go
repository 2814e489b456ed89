package reporting

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zizzania-go/zizzaniad/internal/adapters/storage"
)

func TestRenderProducesNonEmptyPDF(t *testing.T) {
	r := NewPDFReporter()
	s := Summary{
		GeneratedAt:     time.Unix(1_700_000_000, 0),
		Interface:       "wlan0mon",
		TargetsTracked:  2,
		NewClients:      3,
		HandshakesTotal: 1,
		RecentEvents: []storage.EventModel{
			{CreatedAt: time.Unix(1_700_000_000, 0), Action: "HANDSHAKE", BSSID: "aa:bb:cc:dd:ee:ff", Client: "11:22:33:44:55:66"},
		},
	}

	out, err := r.Render(s)
	require.NoError(t, err)
	assert.NotEmpty(t, out)
	assert.Equal(t, "%PDF", string(out[:4]))
}

func TestRenderHandlesNoEvents(t *testing.T) {
	r := NewPDFReporter()
	out, err := r.Render(Summary{GeneratedAt: time.Unix(1_700_000_000, 0)})
	require.NoError(t, err)
	assert.NotEmpty(t, out)
}
