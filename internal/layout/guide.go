package layout

import "github.com/neekaru/fitcoach/internal/session"

// Check is one entry of the live form check
type Check struct {
	Label string              `json:"label"`
	Level session.NoticeLevel `json:"level"`
}

// FormGuide is the coaching content shown next to the live feed
type FormGuide struct {
	Title  string   `json:"title"`
	Points []string `json:"points"`
	Checks []Check  `json:"checks,omitempty"`
	Tips   []string `json:"tips"`
}

// QuickTips are shown under every exercise guide
var QuickTips = []string{
	"Warm up before starting",
	"Maintain proper form",
	"Breathe consistently",
	"Stay hydrated",
}

var guides = map[session.Exercise]FormGuide{
	session.BicepCurls: {
		Title: "Bicep Curl Form",
		Points: []string{
			"Keep elbows close to body",
			"Fully extend at bottom",
			"Control the movement",
			"Don't swing torso",
		},
		Checks: []Check{
			{Label: "Elbow", Level: session.NoticeSuccess},
			{Label: "Extension", Level: session.NoticeWarning},
			{Label: "Wrist", Level: session.NoticeSuccess},
			{Label: "Sway", Level: session.NoticeError},
		},
	},
	session.Squats: {
		Title: "Squat Form",
		Points: []string{
			"Feet shoulder-width apart",
			"Knees aligned with toes",
			"Back straight",
			"Go to parallel",
		},
	},
	session.Pushups: {
		Title: "Push-up Form",
		Points: []string{
			"Keep body straight",
			"Elbows at 45°",
			"Full range of motion",
			"Engage core",
		},
	},
	session.ShoulderPress: {
		Title: "Shoulder Press Form",
		Points: []string{
			"Brace your core",
			"Press straight overhead",
			"Don't arch lower back",
			"Lower to shoulder height",
		},
	},
}

// Guide returns the form guide for an exercise. The result is a fresh copy.
func Guide(e session.Exercise) FormGuide {
	g, ok := guides[e]
	if !ok {
		return FormGuide{Title: e.String(), Tips: cloneStrings(QuickTips)}
	}
	return FormGuide{
		Title:  g.Title,
		Points: cloneStrings(g.Points),
		Checks: append([]Check(nil), g.Checks...),
		Tips:   cloneStrings(QuickTips),
	}
}

// WithFlags replaces the sample form check with the flags last reported by
// the pose collaborator. Guides without a form check and an empty flag set
// are returned unchanged.
func (g FormGuide) WithFlags(flags []session.FormFlag) FormGuide {
	if len(g.Checks) == 0 || len(flags) == 0 {
		return g
	}
	has := make(map[session.FormFlag]bool, len(flags))
	for _, f := range flags {
		has[f] = true
	}
	okOr := func(flag session.FormFlag) session.NoticeLevel {
		if has[flag] {
			return session.NoticeSuccess
		}
		return session.NoticeWarning
	}
	sway := session.NoticeSuccess
	if has[session.FlagSwayDetected] {
		sway = session.NoticeError
	}
	g.Checks = []Check{
		{Label: "Elbow", Level: okOr(session.FlagElbowOK)},
		{Label: "Extension", Level: okOr(session.FlagExtensionOK)},
		{Label: "Wrist", Level: okOr(session.FlagWristOK)},
		{Label: "Sway", Level: sway},
	}
	return g
}

func cloneStrings(in []string) []string {
	return append([]string(nil), in...)
}
