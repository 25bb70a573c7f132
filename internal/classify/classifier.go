package classify

import (
	"strings"
	"sync"
	"unicode"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/rs/zerolog"
)

// steamLibraryMarker is the path segment that identifies executables
// launched out of a Steam game library. Steam games frequently run
// under arbitrary exe names, so the path is the only reliable signal.
const steamLibraryMarker = "steamapps"

const defaultNameCacheSize = 256

// Classifier decides whether a running process is a monitored game
// and which display name to use for it. The known-games table and the
// exclusion list are process-lifetime configuration; callers may
// extend both at runtime.
type Classifier struct {
	mu        sync.RWMutex
	known     map[string]string   // process name -> display name
	excluded  map[string]struct{} // never monitored, checked first
	nameCache *lru.Cache[string, string]
	logger    zerolog.Logger
}

// New creates a classifier seeded with the built-in game table and
// exclusion list.
func New(logger zerolog.Logger) *Classifier {
	cache, err := lru.New[string, string](defaultNameCacheSize)
	if err != nil {
		// lru.New only fails on a non-positive size.
		panic(err)
	}

	c := &Classifier{
		known:     make(map[string]string),
		excluded:  make(map[string]struct{}),
		nameCache: cache,
		logger:    logger.With().Str("component", "classifier").Logger(),
	}

	for process, display := range defaultKnownGames {
		c.known[process] = display
	}
	for _, process := range defaultExcludedProcesses {
		c.excluded[process] = struct{}{}
	}

	return c
}

// defaultKnownGames maps common game and launcher executables to
// display names.
var defaultKnownGames = map[string]string{
	"League of Legends.exe":  "League of Legends",
	"RiotClientServices.exe": "Riot Games",
	"Valorant.exe":           "Valorant",
	"csgo.exe":               "Counter-Strike: Global Offensive",
	"dota2.exe":              "Dota 2",
	"RocketLeague.exe":       "Rocket League",
	"destiny2.exe":           "Destiny 2",
	"overwatch.exe":          "Overwatch",
	"wow.exe":                "World of Warcraft",
	"minecraft.exe":          "Minecraft",
	"epicgameslauncher.exe":  "Epic Games Launcher",
	"battle.net.exe":         "Battle.net",
	"origin.exe":             "EA Origin",
	"uplay.exe":              "Ubisoft Connect",
}

// defaultExcludedProcesses are companion processes that live inside
// game libraries but are not games: overlays, crash handlers, the
// Steam client itself.
var defaultExcludedProcesses = []string{
	"wallpaper32.exe",
	"wallpaper64.exe",
	"steamwebhelper.exe",
	"steamerrorreporter.exe",
	"crashhandler.exe",
	"steam.exe",
}

// Classify returns the display name for a monitored game process, or
// ok=false when the process is not monitored. The exclusion list takes
// priority over the known-games table and the path heuristic.
func (c *Classifier) Classify(processName, exePath string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if _, excluded := c.excluded[processName]; excluded {
		return "", false
	}

	if display, ok := c.known[processName]; ok {
		return display, true
	}

	if pathLooksLikeGameLibrary(exePath) {
		return c.heuristicName(processName), true
	}

	return "", false
}

// AddGame registers a process as a known game at runtime.
func (c *Classifier) AddGame(processName, displayName string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.known[processName] = displayName
	c.logger.Debug().Str("process", processName).Str("game", displayName).Msg("Registered game")
}

// Exclude marks a process as never monitored.
func (c *Classifier) Exclude(processName string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.excluded[processName] = struct{}{}
}

// MonitoredProcesses returns the process names of all registered
// games, mapped to their display names.
func (c *Classifier) MonitoredProcesses() map[string]string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	processes := make(map[string]string, len(c.known))
	for process, display := range c.known {
		processes[process] = display
	}
	return processes
}

// KnownGames returns the display names of all registered games.
func (c *Classifier) KnownGames() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	names := make([]string, 0, len(c.known))
	for _, display := range c.known {
		names = append(names, display)
	}
	return names
}

func pathLooksLikeGameLibrary(exePath string) bool {
	return strings.Contains(exePath, steamLibraryMarker)
}

// heuristicName synthesizes a readable display name from an unknown
// game executable: strip the extension, treat "_" and "-" as word
// separators and capitalize each word. Results are cached because the
// same processes are classified on every monitor tick.
func (c *Classifier) heuristicName(processName string) string {
	if cached, ok := c.nameCache.Get(processName); ok {
		return cached
	}

	name := strings.TrimSuffix(processName, ".exe")
	name = strings.ReplaceAll(name, "_", " ")
	name = strings.ReplaceAll(name, "-", " ")

	words := strings.Fields(name)
	for i, word := range words {
		runes := []rune(word)
		runes[0] = unicode.ToUpper(runes[0])
		words[i] = string(runes)
	}
	display := strings.Join(words, " ")

	c.nameCache.Add(processName, display)
	return display
}
