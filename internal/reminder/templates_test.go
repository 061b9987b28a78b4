package reminder

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pathakanu/plantMemo/internal/model"
	"github.com/pathakanu/plantMemo/internal/schedule"
)

func renderedCandidates(a model.Archetype, band schedule.Band, name string, days int) []string {
	var out []string
	for _, tpl := range templatesFor(a)[band] {
		out = append(out, render(tpl, name, days))
	}
	return out
}

func TestEveryArchetypeCoversEveryBand(t *testing.T) {
	for a, set := range templates {
		for _, band := range []schedule.Band{schedule.BandDueToday, schedule.BandOverdue, schedule.BandUpcoming} {
			assert.NotEmpty(t, set[band], "archetype %s band %s", a, band)
		}
	}
}

func TestFallbackMessageMatchesBand(t *testing.T) {
	cases := []struct {
		overdue int
		band    schedule.Band
	}{
		{0, schedule.BandDueToday},
		{4, schedule.BandOverdue},
		{-3, schedule.BandUpcoming},
	}
	for _, tc := range cases {
		p := duePlant("p1", "Fern", model.ArchetypeGrumpy, tc.overdue)
		msg := FallbackMessage(p, start)
		days := tc.overdue
		if days < 0 {
			days = 0
		}
		assert.Contains(t, renderedCandidates(model.ArchetypeGrumpy, tc.band, "Fern", days), msg, "band %s", tc.band)
	}
}

func TestFallbackIsDeterministic(t *testing.T) {
	p := duePlant("plant-42", "Ivy", model.ArchetypeShy, 2)
	assert.Equal(t, FallbackMessage(p, start), FallbackMessage(p, start))
}

func TestUnknownArchetypeUsesFriendly(t *testing.T) {
	p := duePlant("p1", "Fern", "mysterious", 1)
	assert.Contains(t, renderedCandidates(model.ArchetypeFriendly, schedule.BandOverdue, "Fern", 1), FallbackMessage(p, start))

	p.Archetype = " DRAMATIC "
	assert.Contains(t, renderedCandidates(model.ArchetypeDramatic, schedule.BandOverdue, "Fern", 1), FallbackMessage(p, start))
}

func TestRender(t *testing.T) {
	assert.Equal(t, "Fern waited 1 day", render("{name} waited {days}", "Fern", 1))
	assert.Equal(t, "Your plant waited 3 days", render("{name} waited {days}", " ", 3))
	require.NotEmpty(t, templatesFor("")[schedule.BandUpcoming])
}
