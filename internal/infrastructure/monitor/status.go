package monitor

import "time"

type Status struct {
	Mode       string    `json:"mode"`
	PostgreSQL bool      `json:"postgresql"`
	Redis      bool      `json:"redis"`
	Bolt       bool      `json:"bolt"`
	LastCheck  time.Time `json:"last_check"`
}

// Healthy reports whether the dependencies of the active mode respond.
func (s Status) Healthy() bool {
	if s.Mode == "demo" {
		return s.Bolt
	}
	return s.PostgreSQL && s.Redis
}
