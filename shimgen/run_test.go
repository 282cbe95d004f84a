package shimgen

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teranos/shimgen/config"
	"github.com/teranos/shimgen/errors"
	gametest "github.com/teranos/shimgen/internal/testing"
	"github.com/teranos/shimgen/shimgen/lifecycle"
	"github.com/teranos/shimgen/shimgen/locate"
	"github.com/teranos/shimgen/shimgen/spec"
)

const playerSrc = `package player

import "example.com/game/godot"

//shimgen:script class=Player base=Godot.Node2D
type PlayerImpl struct {
	Speed float64

	//shimgen:nodepath path=Sprite
	Sprite *godot.Sprite2D
}

func (p *PlayerImpl) Ready()                {}
func (p *PlayerImpl) Process(delta float64) {}
`

func testConfig() *config.Config {
	return &config.Config{
		Locator:     config.LocatorHeuristic,
		Host:        config.HostConfig{Import: gametest.HostImport, Alias: "godot"},
		Annotations: config.AnnotationsConfig{Package: gametest.ShimImport},
		Output:      config.OutputConfig{Package: "shims"},
		Locate:      config.LocateConfig{Workers: 4, MinScore: 3},
	}
}

type game struct {
	dir string
	out string
	cfg *config.Config
}

func newGame(t *testing.T, files map[string]string) *game {
	t.Helper()
	return &game{
		dir: gametest.NewGameModule(t, files),
		out: filepath.Join(t.TempDir(), "shims"),
		cfg: testConfig(),
	}
}

func (g *game) run(t *testing.T, mutate ...func(*Options)) (*Report, error) {
	t.Helper()
	opts := Options{
		ModulePath: g.dir,
		OutRoot:    g.out,
		SourceRoot: g.dir,
		Config:     g.cfg,
		Version:    "1.0.0",
	}
	for _, m := range mutate {
		m(&opts)
	}
	return Run(context.Background(), opts)
}

func (g *game) mustRun(t *testing.T, mutate ...func(*Options)) *Report {
	t.Helper()
	r, err := g.run(t, mutate...)
	require.NoError(t, err)
	return r
}

func (g *game) write(t *testing.T, rel, content string) {
	t.Helper()
	gametest.WriteFile(t, filepath.Join(g.dir, filepath.FromSlash(rel)), content)
}

func (g *game) read(t *testing.T, rel string) string {
	t.Helper()
	b, err := os.ReadFile(filepath.Join(g.out, filepath.FromSlash(rel)))
	require.NoError(t, err)
	return string(b)
}

func TestRunWritesShim(t *testing.T) {
	g := newGame(t, map[string]string{"player/player.go": playerSrc})
	r := g.mustRun(t)

	assert.Equal(t, 1, r.Annotated)
	assert.Greater(t, r.Scanned, r.Annotated)
	assert.Equal(t, 1, r.Written)
	assert.NotEmpty(t, r.RunID)

	src, err := os.ReadFile(filepath.Join(g.dir, "player", "player.go"))
	require.NoError(t, err)
	code := g.read(t, "player/player_shim.go")
	assert.Contains(t, code, "// Source Go type: example.com/game/player.PlayerImpl\n")
	assert.Contains(t, code, "// SourceFile: player/player.go\n")
	assert.Contains(t, code, "// SourceHash: "+locate.Hash(src)+"\n")
	assert.Contains(t, code, "panic(\"[shimgen][Player] Missing required node at path 'Sprite' for member Sprite\")")
	assert.Contains(t, code, "func (s *Player) Process(delta float64) { s.impl.Process(delta) }")
}

func TestRunIsIdempotent(t *testing.T) {
	g := newGame(t, map[string]string{"player/player.go": playerSrc})
	g.mustRun(t)

	target := filepath.Join(g.out, "player", "player_shim.go")
	past := time.Now().Add(-time.Hour).Truncate(time.Second)
	require.NoError(t, os.Chtimes(target, past, past))
	before := g.read(t, "player/player_shim.go")

	r := g.mustRun(t)
	assert.Zero(t, r.Written)
	assert.Equal(t, 1, r.Skipped)
	assert.Equal(t, before, g.read(t, "player/player_shim.go"))

	info, err := os.Stat(target)
	require.NoError(t, err)
	assert.True(t, info.ModTime().Equal(past))
}

func TestRunPreservesEditsUntilVersionUpgrade(t *testing.T) {
	g := newGame(t, map[string]string{"player/player.go": playerSrc})
	g.mustRun(t)

	target := filepath.Join(g.out, "player", "player_shim.go")
	edited := g.read(t, "player/player_shim.go") + "\n// local tweak\n"
	require.NoError(t, os.WriteFile(target, []byte(edited), 0o644))

	r := g.mustRun(t)
	assert.Equal(t, 1, r.Skipped)
	assert.Equal(t, edited, g.read(t, "player/player_shim.go"))

	r = g.mustRun(t, func(o *Options) { o.Version = "1.1.0" })
	assert.Equal(t, 1, r.Written)
	code := g.read(t, "player/player_shim.go")
	assert.NotContains(t, code, "local tweak")
	assert.Contains(t, code, "// shimgenVersion: 1.1.0\n")
}

func TestRunPropagatesSourceChanges(t *testing.T) {
	g := newGame(t, map[string]string{"player/player.go": playerSrc})
	g.mustRun(t)

	g.write(t, "player/player.go", strings.Replace(playerSrc, "Speed float64\n", "Speed float64\n\tHealth int\n", 1))
	r := g.mustRun(t)
	assert.Equal(t, 1, r.Written)
	assert.Contains(t, g.read(t, "player/player_shim.go"), "func (s *Player) Health() int { return s.impl.Health }")
}

func TestRunForcedRegeneration(t *testing.T) {
	g := newGame(t, map[string]string{"player/player.go": playerSrc})
	g.mustRun(t)

	g.cfg.Regenerate = "all"
	r := g.mustRun(t)
	assert.Equal(t, 1, r.Written)
	assert.Equal(t, lifecycle.ReasonForced, r.Plan[0].Reason)
}

func TestRunRelocatesMovedSource(t *testing.T) {
	g := newGame(t, map[string]string{"player/player.go": playerSrc})
	g.mustRun(t)

	require.NoError(t, os.RemoveAll(filepath.Join(g.dir, "player")))
	g.write(t, "actors/player.go", playerSrc)

	r := g.mustRun(t)
	assert.Equal(t, 1, r.Moves)
	assert.Zero(t, r.Deletes)
	assert.NoFileExists(t, filepath.Join(g.out, "player", "player_shim.go"))
	assert.Contains(t, g.read(t, "actors/player_shim.go"), "// SourceFile: actors/player.go\n")
}

func TestRunConsolidatesRenamedClass(t *testing.T) {
	g := newGame(t, map[string]string{"player/player.go": playerSrc})
	g.mustRun(t)

	g.write(t, "player/player.go", strings.Replace(playerSrc, "class=Player", "class=Hero", 1))
	r := g.mustRun(t)
	assert.Equal(t, 1, r.Written)
	assert.Equal(t, 1, r.Deletes)
	assert.NoFileExists(t, filepath.Join(g.out, "player", "player_shim.go"))
	assert.Contains(t, g.read(t, "player/hero_shim.go"), "type Hero struct {")
}

func TestRunKeepsSiblingTypes(t *testing.T) {
	siblings := playerSrc + `
//shimgen:script
type Sidekick struct{}
`
	g := newGame(t, map[string]string{"player/player.go": siblings})
	r := g.mustRun(t)
	assert.Equal(t, 2, r.Written)

	g.write(t, "player/player.go", siblings+"\n// touched\n")
	r = g.mustRun(t)
	assert.Equal(t, 2, r.Written)
	assert.Zero(t, r.Deletes)
	assert.FileExists(t, filepath.Join(g.out, "player", "player_shim.go"))
	assert.FileExists(t, filepath.Join(g.out, "player", "sidekick_shim.go"))
}

func TestRunPrunesOrphans(t *testing.T) {
	g := newGame(t, map[string]string{"player/player.go": playerSrc})
	g.mustRun(t)

	g.write(t, "player/player.go", strings.Replace(playerSrc, "//shimgen:script class=Player base=Godot.Node2D\n", "", 1))
	r := g.mustRun(t)
	assert.Zero(t, r.Annotated)
	assert.Equal(t, 1, r.Deletes)
	assert.NoFileExists(t, filepath.Join(g.out, "player", "player_shim.go"))
}

func TestRunPrunesDeletedSource(t *testing.T) {
	g := newGame(t, map[string]string{
		"player/player.go": playerSrc,
		"enemy/enemy.go":   "package enemy\n\n//shimgen:script\ntype Enemy struct{}\n",
	})
	g.mustRun(t)

	require.NoError(t, os.Remove(filepath.Join(g.dir, "player", "player.go")))
	r := g.mustRun(t)
	assert.Equal(t, 1, r.Annotated)
	assert.Equal(t, 1, r.Deletes)
	assert.NoFileExists(t, filepath.Join(g.out, "player", "player_shim.go"))
	assert.FileExists(t, filepath.Join(g.out, "enemy", "enemy_shim.go"))
}

func TestRunWithoutSourceRoot(t *testing.T) {
	g := newGame(t, map[string]string{"player/player.go": playerSrc})
	g.mustRun(t, func(o *Options) { o.SourceRoot = "" })

	code := g.read(t, "player_shim.go")
	assert.NotContains(t, code, "// SourceFile:")
	assert.NotContains(t, code, "// SourceHash:")
}

func TestRunPositionLocator(t *testing.T) {
	g := newGame(t, map[string]string{"player/player.go": playerSrc})
	g.cfg.Locator = config.LocatorPosition
	g.mustRun(t)
	assert.Contains(t, g.read(t, "player/player_shim.go"), "// SourceFile: player/player.go\n")
}

func TestRunDryRun(t *testing.T) {
	g := newGame(t, map[string]string{"player/player.go": playerSrc})
	r := g.mustRun(t, func(o *Options) { o.DryRun = true })

	assert.True(t, r.DryRun)
	assert.Equal(t, 1, r.Written)
	require.Len(t, r.Plan, 1)
	assert.Equal(t, lifecycle.OpWrite, r.Plan[0].Op)
	assert.NoDirExists(t, g.out)
}

func TestRunReportsEveryValidationError(t *testing.T) {
	g := newGame(t, map[string]string{
		"player/player.go": playerSrc,
		"enemy/enemy.go": `package enemy

import "example.com/game/godot"

//shimgen:script
type Enemy struct {
	//shimgen:nodepath required=false
	Target *godot.Node2D
}
`,
		"boss/boss.go": `package boss

//shimgen:script
type Boss struct {
	//shimgen:optional-nodepath
	Arena int
}
`,
	})
	r, err := g.run(t)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrValidation))

	var verrs spec.ValidationErrors
	require.True(t, errors.As(err, &verrs))
	assert.Len(t, verrs, 2)
	assert.Contains(t, err.Error(), "example.com/game/enemy.Enemy.Target")
	assert.Contains(t, err.Error(), "example.com/game/boss.Boss.Arena")

	require.NotNil(t, r)
	assert.Zero(t, r.Written)
	assert.NoFileExists(t, filepath.Join(g.out, "player", "player_shim.go"), "nothing is written when any type fails")
}

func TestRunRejectsClassCollision(t *testing.T) {
	g := newGame(t, map[string]string{
		"player/player.go": playerSrc,
		"other/other.go":   "package other\n\n//shimgen:script class=Player\ntype Other struct{}\n",
	})
	_, err := g.run(t)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrValidation))
	assert.Contains(t, err.Error(), "collides with class Player")
}

func TestRunNoAnnotatedTypes(t *testing.T) {
	g := newGame(t, map[string]string{"plain/plain.go": "package plain\n\ntype Plain struct{}\n"})
	r := g.mustRun(t)
	assert.Zero(t, r.Annotated)
	assert.Zero(t, r.Written)
}

func TestRunUsageAndConfigErrors(t *testing.T) {
	g := newGame(t, map[string]string{"player/player.go": playerSrc})

	_, err := g.run(t, func(o *Options) { o.ModulePath = "" })
	assert.True(t, errors.Is(err, errors.ErrUsage))

	_, err = g.run(t, func(o *Options) { o.OutRoot = "" })
	assert.True(t, errors.Is(err, errors.ErrUsage))

	_, err = g.run(t, func(o *Options) { o.SourceRoot = filepath.Join(g.dir, "missing") })
	assert.True(t, errors.Is(err, errors.ErrConfig))

	g.cfg.Host.Import = ""
	_, err = g.run(t)
	assert.True(t, errors.Is(err, errors.ErrConfig))

	g.cfg = testConfig()
	_, err = g.run(t, func(o *Options) { o.Version = "dev" })
	assert.True(t, errors.Is(err, errors.ErrConfig), "header versions must be comparable")
}

func TestRunModuleLoadFailure(t *testing.T) {
	g := newGame(t, nil)
	_, err := g.run(t, func(o *Options) {
		o.ModulePath = t.TempDir()
		o.SourceRoot = ""
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrModuleLoad))
}

func TestRunSurvivesBrokenSiblingPackage(t *testing.T) {
	g := newGame(t, map[string]string{
		"player/player.go": playerSrc,
		"broken/broken.go": "package broken\n\nvar x int = \"nope\"\n",
	})
	r := g.mustRun(t)
	assert.Equal(t, 1, r.Annotated)
	assert.Equal(t, 1, r.Written)
	assert.Contains(t, g.read(t, "player/player_shim.go"), "type Player struct {")
}

func TestRunRegeneratesStaleShimInsideModule(t *testing.T) {
	g := newGame(t, map[string]string{"player/player.go": playerSrc})
	g.out = filepath.Join(g.dir, "shims")
	g.mustRun(t)
	require.Contains(t, g.read(t, "player/player_shim.go"), "s.impl.Speed")

	// the old shim no longer compiles once the field is gone
	g.write(t, "player/player.go", strings.Replace(playerSrc, "\tSpeed float64\n\n", "", 1))
	r := g.mustRun(t)
	assert.Equal(t, 1, r.Annotated)
	assert.Equal(t, 1, r.Written)
	assert.NotContains(t, g.read(t, "player/player_shim.go"), "Speed")
}

// readOnlyFS refuses every write
type readOnlyFS struct{ lifecycle.OSFS }

func (readOnlyFS) WriteFile(p string, _ []byte) error {
	return &fs.PathError{Op: "write", Path: p, Err: fs.ErrPermission}
}

func TestRunArtifactFailures(t *testing.T) {
	g := newGame(t, map[string]string{"player/player.go": playerSrc})
	r, err := g.run(t, func(o *Options) { o.FS = readOnlyFS{} })
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrArtifactFailures))
	require.NotNil(t, r)
	assert.Equal(t, 1, r.Failed)
	assert.NoFileExists(t, filepath.Join(g.out, "player", "player_shim.go"))
}
