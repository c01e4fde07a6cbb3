package engine

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/librepps/gopps/pkg/errdefs"
)

const (
	defaultMainClass    = "dev.librepps.bridge.BridgeHost"
	defaultStartTimeout = 30 * time.Second
	defaultCallTimeout  = 60 * time.Second

	// maxReplyBytes caps one bridge reply line; editor responses carry
	// per-line payloads and can run large.
	maxReplyBytes = 16 << 20
)

// HostConfig describes one engine isolate.
type HostConfig struct {
	Name         string   // engine name carried on faults and logs
	JavaBin      string   // java executable
	BridgeJar    string   // bridge host jar
	EngineJars   []string // the engine bundle, loaded only by this host
	MainClass    string
	StartTimeout time.Duration
	CallTimeout  time.Duration
}

// Host runs one engine bundle in a bridge subprocess and implements Runner
// over its stdio. One request is in flight at a time; a reply arriving for
// a request that already timed out is matched by id and discarded.
type Host struct {
	cfg HostConfig
	log zerolog.Logger

	mu  sync.Mutex // serializes in-flight requests
	cmd *exec.Cmd
	in  io.WriteCloser
	enc *json.Encoder

	pmu     sync.Mutex
	pending map[string]chan Response

	done      chan struct{}
	closeOnce sync.Once
}

// NewHost creates a Host for one engine bundle. Start must be called before
// the first Invoke.
func NewHost(cfg HostConfig, log zerolog.Logger) *Host {
	if cfg.MainClass == "" {
		cfg.MainClass = defaultMainClass
	}
	if cfg.StartTimeout <= 0 {
		cfg.StartTimeout = defaultStartTimeout
	}
	if cfg.CallTimeout <= 0 {
		cfg.CallTimeout = defaultCallTimeout
	}
	return &Host{
		cfg:     cfg,
		log:     log.With().Str("engine", cfg.Name).Logger(),
		pending: make(map[string]chan Response),
		done:    make(chan struct{}),
	}
}

// Start launches the bridge subprocess and performs the ping handshake.
func (h *Host) Start(ctx context.Context) error {
	classpath := strings.Join(append([]string{h.cfg.BridgeJar}, h.cfg.EngineJars...), string(os.PathListSeparator))
	cmd := exec.Command(h.cfg.JavaBin, "-cp", classpath, h.cfg.MainClass)

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("engine %s stdin: %w", h.cfg.Name, err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("engine %s stdout: %w", h.cfg.Name, err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return fmt.Errorf("engine %s stderr: %w", h.cfg.Name, err)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start engine %s: %w", h.cfg.Name, err)
	}
	h.cmd = cmd
	h.attach(stdin, stdout)
	go h.drainStderr(stderr)

	pingCtx, cancel := context.WithTimeout(ctx, h.cfg.StartTimeout)
	defer cancel()
	if _, err := h.Invoke(pingCtx, Request{Op: OpPing}); err != nil {
		h.Close()
		return fmt.Errorf("engine %s start handshake: %w", h.cfg.Name, err)
	}
	h.log.Info().Int("jars", len(h.cfg.EngineJars)).Msg("engine bridge started")
	return nil
}

// attach wires the host to a bridge connection and starts the read loop.
// Tests attach in-memory pipes instead of a subprocess.
func (h *Host) attach(in io.WriteCloser, out io.Reader) {
	h.in = in
	h.enc = json.NewEncoder(in)
	go h.readLoop(out)
}

func (h *Host) readLoop(out io.Reader) {
	defer close(h.done)

	scanner := bufio.NewScanner(out)
	scanner.Buffer(make([]byte, 0, 64*1024), maxReplyBytes)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(bytes.TrimSpace(line)) == 0 {
			continue
		}
		var resp Response
		if err := json.Unmarshal(line, &resp); err != nil {
			h.log.Warn().Err(err).Msg("discarding unparseable bridge reply")
			continue
		}

		h.pmu.Lock()
		ch, ok := h.pending[resp.ID]
		if ok {
			delete(h.pending, resp.ID)
		}
		h.pmu.Unlock()
		if !ok {
			h.log.Debug().Str("id", resp.ID).Msg("discarding late bridge reply")
			continue
		}
		ch <- resp
	}
	if err := scanner.Err(); err != nil {
		h.log.Warn().Err(err).Msg("bridge stdout closed")
	}
}

func (h *Host) drainStderr(r io.Reader) {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		h.log.Debug().Str("stream", "stderr").Msg(scanner.Text())
	}
}

// Invoke sends one request and waits for its reply. Engine-side failures
// come back as EngineFault errors; the raw vendor fault never escapes.
func (h *Host) Invoke(ctx context.Context, req Request) (map[string]interface{}, error) {
	if req.ID == "" {
		req.ID = uuid.NewString()
	}
	if req.Engine == "" {
		req.Engine = h.cfg.Name
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	select {
	case <-h.done:
		return nil, h.fault(req.Op, "exited", "engine bridge is not running")
	default:
	}

	ch := make(chan Response, 1)
	h.pmu.Lock()
	h.pending[req.ID] = ch
	h.pmu.Unlock()
	defer func() {
		h.pmu.Lock()
		delete(h.pending, req.ID)
		h.pmu.Unlock()
	}()

	if err := h.enc.Encode(req); err != nil {
		return nil, h.fault(req.Op, "io", fmt.Sprintf("write request: %v", err))
	}

	timer := time.NewTimer(h.cfg.CallTimeout)
	defer timer.Stop()

	select {
	case resp := <-ch:
		return h.unpack(req.Op, resp)
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-timer.C:
		return nil, h.fault(req.Op, "timeout", fmt.Sprintf("no reply within %s", h.cfg.CallTimeout))
	case <-h.done:
		// The reply may have been delivered just before the loop exited.
		select {
		case resp := <-ch:
			return h.unpack(req.Op, resp)
		default:
		}
		return nil, h.fault(req.Op, "exited", "engine bridge exited mid-call")
	}
}

func (h *Host) unpack(op string, resp Response) (map[string]interface{}, error) {
	if resp.OK {
		return resp.Result, nil
	}
	f := &errdefs.EngineFaultError{Engine: h.cfg.Name, Op: op, Message: "engine fault with no detail"}
	if resp.Error != nil {
		f.Class = resp.Error.Class
		f.Stack = resp.Error.Stack
		if resp.Error.Message != "" {
			f.Message = resp.Error.Message
		}
	}
	return nil, f
}

func (h *Host) fault(op, class, message string) error {
	return &errdefs.EngineFaultError{Engine: h.cfg.Name, Op: op, Class: class, Message: message}
}

// Name returns the engine name this host isolates.
func (h *Host) Name() string { return h.cfg.Name }

// Close asks the bridge to shut down, then reaps the subprocess. Safe to
// call more than once.
func (h *Host) Close() error {
	h.closeOnce.Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_, _ = h.Invoke(ctx, Request{Op: OpShutdown})

		if h.in != nil {
			h.in.Close()
		}
		if h.cmd != nil && h.cmd.Process != nil {
			waited := make(chan struct{})
			go func() {
				_ = h.cmd.Wait()
				close(waited)
			}()
			select {
			case <-waited:
			case <-time.After(3 * time.Second):
				_ = h.cmd.Process.Kill()
				<-waited
			}
		}
	})
	return nil
}
