package chat

import (
	"bufio"
	"context"
	"net"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Relay is a minimal TCP message relay for the mesh: every line received
// from one client is forwarded to all other connected clients. There is no
// authentication and no history; it is a party line for nodes that can
// reach each other over the mesh.
type Relay struct {
	log zerolog.Logger

	// writeTimeout bounds each broadcast write so one stalled client
	// cannot freeze relay traffic for everyone else.
	writeTimeout time.Duration

	mu      sync.Mutex
	clients map[net.Conn]struct{}
}

func NewRelay(log zerolog.Logger) *Relay {
	return &Relay{log: log, writeTimeout: 5 * time.Second, clients: make(map[net.Conn]struct{})}
}

// ListenAndServe accepts clients on addr until ctx is canceled.
func (r *Relay) ListenAndServe(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return r.Serve(ctx, ln)
}

// Serve accepts clients from ln until ctx is canceled.
func (r *Relay) Serve(ctx context.Context, ln net.Listener) error {
	r.log.Info().Str("listen", ln.Addr().String()).Msg("chat relay listening")

	go func() {
		<-ctx.Done()
		ln.Close()
	}()

	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return err
		}
		go r.handle(conn)
	}
}

func (r *Relay) handle(conn net.Conn) {
	remote := conn.RemoteAddr().String()
	r.log.Info().Str("remote", remote).Msg("chat client connected")

	r.mu.Lock()
	r.clients[conn] = struct{}{}
	r.mu.Unlock()

	defer func() {
		r.mu.Lock()
		delete(r.clients, conn)
		r.mu.Unlock()
		conn.Close()
		r.log.Info().Str("remote", remote).Msg("chat client disconnected")
	}()

	scanner := bufio.NewScanner(conn)
	for scanner.Scan() {
		msg := scanner.Bytes()
		if len(msg) == 0 {
			continue
		}
		r.broadcast(msg, conn)
	}
}

// broadcast sends msg to every client except the sender. A client that
// fails or times out the write is dropped.
func (r *Relay) broadcast(msg []byte, sender net.Conn) {
	line := append(append([]byte{}, msg...), '\n')

	r.mu.Lock()
	defer r.mu.Unlock()
	for c := range r.clients {
		if c == sender {
			continue
		}
		_ = c.SetWriteDeadline(time.Now().Add(r.writeTimeout))
		if _, err := c.Write(line); err != nil {
			delete(r.clients, c)
			c.Close()
		}
	}
}
