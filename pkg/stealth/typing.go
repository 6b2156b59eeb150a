package stealth

import (
	"context"
	"strings"
	"time"
	"unicode"

	"github.com/linuxdo-automation/pkg/config"
	"github.com/linuxdo-automation/pkg/logger"
)

var keyboardRows = []string{
	"1234567890",
	"qwertyuiop",
	"asdfghjkl",
	"zxcvbnm",
}

type TypingController struct {
	config *config.TypingConfig
	timing *TimingController
	log    *logger.Logger
}

type KeyStroke struct {
	Char      rune
	Delay     time.Duration
	IsTypo    bool
	Backspace bool
}

func NewTypingController(cfg *config.TypingConfig, timing *TimingController) *TypingController {
	return &TypingController{
		config: cfg,
		timing: timing,
		log:    logger.WithComponent("typing"),
	}
}

func (t *TypingController) Enabled() bool {
	return t.config.Enabled
}

// GenerateKeystrokes plans the key presses for text, including the
// occasional neighbouring-key typo followed by a backspace.
func (t *TypingController) GenerateKeystrokes(text string) []KeyStroke {
	runes := []rune(text)
	keystrokes := make([]KeyStroke, 0, len(runes)+len(runes)/10)

	for i, char := range runes {
		delay := t.keyDelay(char)

		if i > 0 && unicode.IsSpace(char) && !unicode.IsSpace(runes[i-1]) &&
			t.timing.Chance(t.config.ThinkPauseChance) {
			delay += t.timing.RandomDelay(500*time.Millisecond, 2*time.Second)
		}

		if typo, ok := neighbourKey(char, t.timing); ok && t.timing.Chance(t.config.TypoChance) {
			keystrokes = append(keystrokes,
				KeyStroke{Char: typo, Delay: delay, IsTypo: true},
				KeyStroke{Delay: t.config.CorrectionDelay, Backspace: true},
				KeyStroke{Char: char, Delay: t.keyDelay(char)},
			)
			continue
		}

		keystrokes = append(keystrokes, KeyStroke{Char: char, Delay: delay})
	}

	return keystrokes
}

func (t *TypingController) keyDelay(char rune) time.Duration {
	base := t.timing.RandomDelay(t.config.MinKeyDelay, t.config.MaxKeyDelay)
	switch {
	case unicode.IsSpace(char):
		return base * 7 / 10
	case unicode.IsUpper(char), unicode.IsPunct(char), unicode.IsSymbol(char):
		return base * 13 / 10
	}
	return base
}

// neighbourKey returns a key next to char on a QWERTY row, keeping its case.
func neighbourKey(char rune, timing *TimingController) (rune, bool) {
	lower := unicode.ToLower(char)
	for _, row := range keyboardRows {
		idx := strings.IndexRune(row, lower)
		if idx < 0 {
			continue
		}

		var candidates []rune
		if idx > 0 {
			candidates = append(candidates, rune(row[idx-1]))
		}
		if idx < len(row)-1 {
			candidates = append(candidates, rune(row[idx+1]))
		}

		typo := candidates[timing.IntBetween(0, len(candidates)-1)]
		if unicode.IsUpper(char) {
			typo = unicode.ToUpper(typo)
		}
		return typo, true
	}
	return 0, false
}

func (t *TypingController) ExecuteTyping(ctx context.Context, typeFn func(char rune) error, backspaceFn func() error, text string) error {
	start := time.Now()

	for _, ks := range t.GenerateKeystrokes(text) {
		if err := t.timing.Sleep(ctx, ks.Delay); err != nil {
			return err
		}

		if ks.Backspace {
			if err := backspaceFn(); err != nil {
				return err
			}
			continue
		}
		if err := typeFn(ks.Char); err != nil {
			return err
		}
	}

	t.log.Debug("Typing completed in %v", time.Since(start))
	return nil
}

func (t *TypingController) TypingDuration(text string) time.Duration {
	var total time.Duration
	for _, ks := range t.GenerateKeystrokes(text) {
		total += ks.Delay
	}
	return total
}
