// Package sandbox drives the isolate-based sandboxing tool: creating and
// destroying numbered isolation slots and mediating every file/execution
// operation a judging run performs inside one.
package sandbox

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"judgecore/internal/config"
	"judgecore/internal/logging"
)

// Sandbox is a single numbered isolation slot.
type Sandbox struct {
	ID      int
	BoxPath string
}

// boxDir is the directory inside the sandbox root that the jailed program
// sees as its working directory; every path the jailed program touches is
// relative to it.
func (s Sandbox) boxDir() string {
	return filepath.Join(s.BoxPath, "box")
}

// ExecuteConfig configures one isolate --run invocation.
type ExecuteConfig struct {
	WallTimeLimit      float64
	TimeLimit          float64
	MemoryLimit        int64
	MetaFile           string
	InputFile          string
	OutputFile         string
	ErrorFile          string
	FullEnv            bool
	UnlimitedProcesses bool
	AdditionalFlags    []string
}

// Output mirrors the pieces of a completed isolate invocation callers need.
type Output struct {
	Stdout   []byte
	Stderr   []byte
	ExitCode int
}

// Driver runs isolate commands. IsolateBin is the binary name or path to
// invoke, overridable (chiefly by tests) via JUDGECORE_ISOLATE_BIN.
type Driver struct {
	IsolateBin string
}

// NewDriver returns a Driver using the configured isolate binary.
func NewDriver() *Driver {
	return &Driver{IsolateBin: config.IsolateBin()}
}

func (d *Driver) bin() string {
	if d.IsolateBin != "" {
		return d.IsolateBin
	}
	return "isolate"
}

// Create allocates sandbox slot id. It first issues a best-effort cleanup
// (idempotent — a stale slot from a previous crashed run must not block a
// fresh init), then runs isolate's control-group init and stores the
// printed (trimmed) sandbox root as BoxPath.
func (d *Driver) Create(ctx context.Context, id int) (Sandbox, error) {
	_ = d.Cleanup(ctx, id)

	out, err := exec.CommandContext(ctx, d.bin(), "--cg", "--init", boxIDFlag(id)).Output()
	if err != nil {
		return Sandbox{}, fmt.Errorf("isolate init box %d: %w", id, err)
	}

	path := strings.TrimSpace(string(out))
	logging.S().Debugf("sandbox %d created at %s", id, path)

	return Sandbox{ID: id, BoxPath: path}, nil
}

// Cleanup destroys sandbox slot id. Isolate's cleanup must succeed; a
// failure here is fatal to the run since a leaked slot can block every
// later Create for the same id.
func (d *Driver) Cleanup(ctx context.Context, id int) error {
	cmd := exec.CommandContext(ctx, d.bin(), "--cg", "--cleanup", boxIDFlag(id))
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("isolate cleanup box %d: %w", id, err)
	}
	logging.S().Debugf("sandbox %d destroyed", id)
	return nil
}

// Execute builds the isolate argv in the exact flag order isolate expects
// and runs argv inside the sandbox, with the child's working directory set
// to the sandbox's box directory.
func (d *Driver) Execute(ctx context.Context, sb Sandbox, cfg ExecuteConfig, argv []string) (Output, error) {
	args := []string{
		"--cg",
		boxIDFlag(sb.ID),
		fmt.Sprintf("--wall-time=%v", cfg.WallTimeLimit),
		fmt.Sprintf("--time=%v", cfg.TimeLimit),
		fmt.Sprintf("--mem=%d", cfg.MemoryLimit),
		"--run",
	}

	if cfg.InputFile != "" {
		args = append(args, "--stdin="+cfg.InputFile)
	}
	if cfg.OutputFile != "" {
		args = append(args, "--stdout="+cfg.OutputFile)
	}
	if cfg.ErrorFile != "" {
		args = append(args, "--stderr="+cfg.ErrorFile)
	}
	if cfg.MetaFile != "" {
		args = append(args, "--meta="+cfg.MetaFile)
	}
	if cfg.FullEnv {
		args = append(args, "--full-env")
	}
	if cfg.UnlimitedProcesses {
		args = append(args, "--processes=0")
	}
	args = append(args, cfg.AdditionalFlags...)
	args = append(args, "--")
	args = append(args, argv...)

	cmd := exec.CommandContext(ctx, d.bin(), args...)
	cmd.Dir = sb.boxDir()

	var out Output
	stdout, stdoutErr := cmd.Output()
	out.Stdout = stdout

	exitErr, isExit := asExitError(stdoutErr)
	switch {
	case stdoutErr == nil:
		out.ExitCode = 0
	case isExit:
		out.Stderr = exitErr.Stderr
		out.ExitCode = exitErr.ExitCode()
	default:
		return Output{}, fmt.Errorf("run isolate box %d: %w", sb.ID, stdoutErr)
	}

	logging.S().Debugw("isolate run finished", "box", sb.ID, "exit_code", out.ExitCode)
	return out, nil
}

func asExitError(err error) (*exec.ExitError, bool) {
	ee, ok := err.(*exec.ExitError)
	return ee, ok
}

// Compile renders lang's compile command against source/destination, merges
// cfg's additional flags with the language's own compile flags (config
// first, language second), and executes it.
func (d *Driver) Compile(ctx context.Context, sb Sandbox, lang config.Language, cfg ExecuteConfig, source, destination string) (Output, error) {
	argv := config.RenderCompile(lang, source, destination)
	merged := cfg
	merged.AdditionalFlags = append(append([]string{}, cfg.AdditionalFlags...), lang.CompileFlags...)

	out, err := d.Execute(ctx, sb, merged, argv)
	if err != nil {
		return Output{}, err
	}
	logging.S().Debugw("compile finished", "box", sb.ID, "language", lang.Code, "destination", destination)
	return out, nil
}

// Run renders lang's execute command against executable, merges cfg's
// additional flags with the language's own execute flags, and executes it.
func (d *Driver) Run(ctx context.Context, sb Sandbox, lang config.Language, cfg ExecuteConfig, executable string) (Output, error) {
	argv := config.RenderExecute(lang, executable)
	merged := cfg
	merged.AdditionalFlags = append(append([]string{}, cfg.AdditionalFlags...), lang.ExecuteFlags...)

	out, err := d.Execute(ctx, sb, merged, argv)
	if err != nil {
		return Output{}, err
	}
	logging.S().Debugw("run finished", "box", sb.ID, "language", lang.Code, "executable", executable)
	return out, nil
}

// CopyInto copies a host file into the sandbox's box directory.
func (d *Driver) CopyInto(sb Sandbox, hostPath, relDst string) error {
	return copyFile(hostPath, filepath.Join(sb.boxDir(), relDst))
}

// CopyAcrossSandbox copies a file from one sandbox's box directory into
// another's (or the same one's).
func (d *Driver) CopyAcrossSandbox(src Sandbox, dst Sandbox, relSrc, relDst string) error {
	return copyFile(filepath.Join(src.boxDir(), relSrc), filepath.Join(dst.boxDir(), relDst))
}

// ReadFile reads a file relative to sb's box directory as UTF-8 text.
func (d *Driver) ReadFile(sb Sandbox, rel string) (string, error) {
	data, err := os.ReadFile(filepath.Join(sb.boxDir(), rel))
	if err != nil {
		return "", fmt.Errorf("read %s from box %d: %w", rel, sb.ID, err)
	}
	return string(data), nil
}

// copyFile preserves src's permission bits on dst: a compiled checker or
// submission binary must stay executable when it's copied into secondary
// sandboxes (CopyAcrossSandbox), not just in the sandbox it was compiled in.
func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("copy: open source %s: %w", src, err)
	}
	defer in.Close()

	mode := os.FileMode(0o644)
	if fi, err := in.Stat(); err == nil {
		mode = fi.Mode().Perm()
	}

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, mode)
	if err != nil {
		return fmt.Errorf("copy: create destination %s: %w", dst, err)
	}
	defer out.Close()

	if _, err := out.ReadFrom(in); err != nil {
		return fmt.Errorf("copy: %s -> %s: %w", src, dst, err)
	}
	return nil
}

func boxIDFlag(id int) string {
	return "--box-id=" + strconv.Itoa(id)
}
