package reminder

import (
	"fmt"
	"hash/fnv"
	"strings"
	"time"

	"github.com/pathakanu/plantMemo/internal/model"
	"github.com/pathakanu/plantMemo/internal/schedule"
)

type bandTemplates map[schedule.Band][]string

// Placeholders: {name} is the plant name, {days} the overdue span ("3 days").
var templates = map[model.Archetype]bandTemplates{
	model.ArchetypeFriendly: {
		schedule.BandDueToday: {
			"{name} would love a drink today.",
			"Watering day for {name}! A little water goes a long way.",
		},
		schedule.BandOverdue: {
			"{name} has been waiting {days} for water. Could you help out?",
			"It's been {days} past watering time for {name}.",
		},
		schedule.BandUpcoming: {
			"{name} is doing fine for now. Watering is coming up soon.",
			"No rush, {name} is happily hydrated for the moment.",
		},
	},
	model.ArchetypeCheerful: {
		schedule.BandDueToday: {
			"Yay, it's water day! {name} is ready to sparkle!",
			"Good morning! {name} can't wait for a refreshing sip today!",
		},
		schedule.BandOverdue: {
			"Hi hi! {name} is still smiling, but it's been {days}. Water soon?",
			"{name} here! {days} without water, but I believe in you!",
		},
		schedule.BandUpcoming: {
			"{name} is feeling fabulous and fully watered!",
			"All good over here! {name} is soaking up the sunshine.",
		},
	},
	model.ArchetypeDramatic: {
		schedule.BandDueToday: {
			"Today is the day {name} must be watered, or all is lost!",
			"{name} clutches a single leaf to its brow. Water. Today. Please.",
		},
		schedule.BandOverdue: {
			"{days}! {days} without water! {name} is wilting into legend!",
			"Alas, {name} has endured {days} of cruel drought.",
		},
		schedule.BandUpcoming: {
			"{name} is quenched... for now. The drama shall return.",
			"{name} rests, hydrated, awaiting its next grand scene.",
		},
	},
	model.ArchetypeZen: {
		schedule.BandDueToday: {
			"Water flows to {name} today, as it should.",
			"Today {name} welcomes water with a calm heart.",
		},
		schedule.BandOverdue: {
			"{name} has waited {days}. Patience is deep, but roots are thirsty.",
			"The soil of {name} has been dry for {days}. Return to the watering can.",
		},
		schedule.BandUpcoming: {
			"{name} is balanced and content.",
			"Be still. {name} needs nothing today.",
		},
	},
	model.ArchetypeSassy: {
		schedule.BandDueToday: {
			"Um, hello? {name} is due for water today. Just saying.",
			"{name} expects water today. Don't make it ask twice.",
		},
		schedule.BandOverdue: {
			"{days}. {name} has been counting. Water. Now.",
			"Oh, so we're just ignoring {name} for {days}? Cool, cool.",
		},
		schedule.BandUpcoming: {
			"{name} is fine. Obviously. Thanks for asking.",
			"{name} doesn't need you right now. But soon.",
		},
	},
	model.ArchetypeGrumpy: {
		schedule.BandDueToday: {
			"Hmph. {name} supposes today is watering day.",
			"{name} grumbles: water today, and don't drown me.",
		},
		schedule.BandOverdue: {
			"{name} has been dry for {days} and is not pleased about it.",
			"{days} late. {name} will remember this.",
		},
		schedule.BandUpcoming: {
			"{name} is watered. Leave it alone.",
			"{name} has nothing to complain about. Yet.",
		},
	},
	model.ArchetypeShy: {
		schedule.BandDueToday: {
			"Um... if it's okay, {name} would like some water today.",
			"{name} quietly hopes for a little water today.",
		},
		schedule.BandOverdue: {
			"Sorry to bother you... {name} hasn't had water in {days}.",
			"{name} didn't want to say anything, but it's been {days}.",
		},
		schedule.BandUpcoming: {
			"{name} is okay, thank you for checking.",
			"{name} is comfy and watered.",
		},
	},
}

func templatesFor(a model.Archetype) bandTemplates {
	if set, ok := templates[model.Archetype(strings.ToLower(strings.TrimSpace(string(a))))]; ok {
		return set
	}
	return templates[model.ArchetypeFriendly]
}

// FallbackMessage renders the templated reminder for p. The template is
// picked from p's archetype and urgency band, stably per plant ID.
func FallbackMessage(p model.Plant, now time.Time) string {
	candidates := templatesFor(p.Archetype)[schedule.UrgencyBand(p, now)]
	h := fnv.New32a()
	_, _ = h.Write([]byte(p.ID))
	tpl := candidates[h.Sum32()%uint32(len(candidates))]
	return render(tpl, p.Name, schedule.DaysOverdue(p, now))
}

func render(tpl, name string, days int) string {
	if strings.TrimSpace(name) == "" {
		name = "Your plant"
	}
	span := fmt.Sprintf("%d days", days)
	if days == 1 {
		span = "1 day"
	}
	return strings.NewReplacer("{name}", name, "{days}", span).Replace(tpl)
}
