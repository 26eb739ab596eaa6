package chat

import (
	"fmt"
	"strings"

	"github.com/kailas-cloud/ideascout/internal/domain"
)

// Mode is the conversational strategy.
type Mode string

// Chat mode constants.
const (
	Normal Mode = "normal"
	Agent  Mode = "agent"
	// AISearch answers with the top catalog and literature matches.
	AISearch Mode = "ai_search"
)

// ParseMode accepts the wire names, including "ai search".
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "normal":
		return Normal, nil
	case "agent":
		return Agent, nil
	case "ai_search", "ai search":
		return AISearch, nil
	}
	return "", fmt.Errorf("%q: %w", s, domain.ErrUnknownChatMode)
}

// IsValid checks if the mode is one of the supported values.
func (m Mode) IsValid() bool {
	return m == Normal || m == Agent || m == AISearch
}
