package transport

import (
	"context"
	"fmt"
	"net"
)

const maxDatagramSize = 1500

// UDPChannel implements Channel over net.UDPConn. Adapted from the teacher
// repo's pkg/rtp/transport_udp.go, with the pion-specific packet
// marshal/unmarshal calls removed: this package only moves bytes, the
// caller (pkg/session) owns wire codec concerns.
type UDPChannel struct {
	conn *net.UDPConn
}

// ListenUDP opens a UDP socket on localAddr (e.g. "0.0.0.0:0" for an
// ephemeral port) and applies cfg's buffer sizing and, on supported
// platforms, voice-oriented socket tuning.
func ListenUDP(localAddr string, cfg Config) (*UDPChannel, error) {
	addr, err := net.ResolveUDPAddr("udp", localAddr)
	if err != nil {
		return nil, fmt.Errorf("transport: resolve local addr: %w", err)
	}
	conn, err := net.ListenUDP("udp", addr)
	if err != nil {
		return nil, fmt.Errorf("transport: listen: %w", err)
	}

	if cfg.ReadBufferBytes > 0 {
		_ = conn.SetReadBuffer(cfg.ReadBufferBytes)
	}
	if cfg.WriteBufferBytes > 0 {
		_ = conn.SetWriteBuffer(cfg.WriteBufferBytes)
	}
	if cfg.VoiceOptimized {
		applyVoiceOptimizations(conn)
	}

	return &UDPChannel{conn: conn}, nil
}

func (c *UDPChannel) LocalAddr() net.Addr { return c.conn.LocalAddr() }

func (c *UDPChannel) SendTo(b []byte, addr net.Addr) error {
	udpAddr, ok := addr.(*net.UDPAddr)
	if !ok {
		return fmt.Errorf("transport: addr is not a UDPAddr")
	}
	_, err := c.conn.WriteToUDP(b, udpAddr)
	return err
}

func (c *UDPChannel) RecvFrom(ctx context.Context) ([]byte, net.Addr, error) {
	if dl, ok := ctx.Deadline(); ok {
		_ = c.conn.SetReadDeadline(dl)
	} else {
		_ = c.conn.SetReadDeadline(zeroTime)
	}

	buf := make([]byte, maxDatagramSize)
	n, addr, err := c.conn.ReadFromUDP(buf)
	if err != nil {
		select {
		case <-ctx.Done():
			return nil, nil, ctx.Err()
		default:
		}
		return nil, nil, err
	}
	return buf[:n], addr, nil
}

func (c *UDPChannel) Close() error { return c.conn.Close() }
