package stealth

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/linuxdo-automation/pkg/config"
)

// Fingerprint is the window a session presents to the site. go-rod/stealth
// patches the JS-visible automation markers; this covers what it leaves to
// the launcher.
type Fingerprint struct {
	Width  int
	Height int
}

// LaunchFlag is one Chromium command line switch without the leading dashes.
type LaunchFlag struct {
	Name   string
	Values []string
}

var DefaultFingerprint = Fingerprint{Width: 1366, Height: 768}

var commonResolutions = []Fingerprint{
	{1920, 1080},
	{1366, 768},
	{1536, 864},
	{1440, 900},
	{1280, 720},
	{1680, 1050},
	{1600, 900},
	{1280, 800},
}

type FingerprintManager struct {
	config *config.BrowserConfig
	rand   *rand.Rand
}

func NewFingerprintManager(cfg *config.BrowserConfig) *FingerprintManager {
	return NewFingerprintManagerWithSeed(cfg, time.Now().UnixNano())
}

func NewFingerprintManagerWithSeed(cfg *config.BrowserConfig, seed int64) *FingerprintManager {
	return &FingerprintManager{
		config: cfg,
		rand:   rand.New(rand.NewSource(seed)),
	}
}

// Generate picks the window for one browser launch.
func (f *FingerprintManager) Generate() Fingerprint {
	if f == nil || !f.config.RandomizeViewport {
		return DefaultFingerprint
	}
	return commonResolutions[f.rand.Intn(len(commonResolutions))]
}

// LaunchFlags are the switches every session browser starts with.
func LaunchFlags(fp Fingerprint) []LaunchFlag {
	return []LaunchFlag{
		{Name: "no-first-run"},
		{Name: "no-default-browser-check"},
		{Name: "disable-infobars"},
		{Name: "disable-dev-shm-usage"},
		{Name: "disable-blink-features", Values: []string{"AutomationControlled"}},
		{Name: "window-size", Values: []string{fmt.Sprintf("%d,%d", fp.Width, fp.Height)}},
	}
}
