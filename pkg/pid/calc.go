package pid

import (
	"fmt"
	"strings"

	"github.com/mikesmitty/pidcalc"
)

// DefaultTuningRule is used when no rule is named.
const DefaultTuningRule = "ziegler-nichols"

var tuningRules = []struct {
	name    string
	aliases []string
	algo    int
}{
	{"ziegler-nichols", []string{"classic", "zn"}, pidcalc.ZieglerNichols},
	{"pessen-integral", []string{"pessen"}, pidcalc.PessenIntegral},
	{"some-overshoot", nil, pidcalc.SomeOvershoot},
	{"no-overshoot", nil, pidcalc.NoOvershoot},
	{"tyreus-luyben", []string{"tyreus"}, pidcalc.TyreusLuyben},
}

// TuningRules lists the canonical rule names accepted by CalculateGains.
func TuningRules() []string {
	names := make([]string, 0, len(tuningRules))
	for _, r := range tuningRules {
		names = append(names, r.name)
	}
	return names
}

// tuningRule resolves name case-insensitively, treating spaces and
// underscores as hyphens.
func tuningRule(name string) (int, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	n = strings.NewReplacer("_", "-", " ", "-").Replace(n)
	if n == "" {
		n = DefaultTuningRule
	}
	for _, r := range tuningRules {
		if n == r.name {
			return r.algo, nil
		}
		for _, a := range r.aliases {
			if n == a {
				return r.algo, nil
			}
		}
	}
	return 0, fmt.Errorf("unknown tuning rule %q, want one of %s", name, strings.Join(TuningRules(), ", "))
}

// CalculateGains derives kp, ki and kd from the ultimate gain ku and the
// oscillation period tu (seconds) using the named tuning rule. Without both
// ku and tu the explicit gains are returned as given.
func CalculateGains(ku, tu, kp, ki, kd float64, rule string) (float64, float64, float64, error) {
	algo, err := tuningRule(rule)
	if err != nil {
		return 0, 0, 0, err
	}
	if ku <= 0 || tu <= 0 {
		return kp, ki, kd, nil
	}
	return pidcalc.Calculate(ku, tu, kp, ki, kd, algo)
}
