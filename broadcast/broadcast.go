// broadcast/broadcast.go
package broadcast

import (
	"errors"
	"fmt"

	"github.com/znichola/red-tetris/logger"
	"github.com/znichola/red-tetris/network"
)

// Counter is told about every packet that was written.
type Counter interface {
	IncMessagesSent()
}

// 基于房间的广播器，按每个连接自己的编码发送
type RoomBroadcaster struct {
	counter Counter
}

func NewRoomBroadcaster(counter Counter) *RoomBroadcaster {
	return &RoomBroadcaster{counter: counter}
}

// Send encodes v with the connection's codec and writes one packet.
func (b *RoomBroadcaster) Send(conn network.Connection, msgID uint16, v any) error {
	data, err := conn.Codec().Marshal(v)
	if err != nil {
		return fmt.Errorf("encode message %d: %w", msgID, err)
	}
	return b.write(conn, msgID, data)
}

// Broadcast sends v to every connection, encoding it once per codec.
func (b *RoomBroadcaster) Broadcast(conns []network.Connection, msgID uint16, v any) {
	encoded := make(map[string][]byte)
	for _, conn := range conns {
		codec := conn.Codec()
		data, ok := encoded[codec.Name()]
		if !ok {
			var err error
			data, err = codec.Marshal(v)
			if err != nil {
				logger.Log.Errorf("encode message %d with %s: %v", msgID, codec.Name(), err)
				continue
			}
			encoded[codec.Name()] = data
		}
		if err := b.write(conn, msgID, data); err != nil {
			if errors.Is(err, network.ErrPacketTooLarge) {
				logger.Log.Warnf("drop message %d for %s: %d bytes", msgID, conn.RemoteAddr(), len(data))
				continue
			}
			// 发送失败的连接会在读循环里断开
			logger.Log.Debugf("send message %d to %s: %v", msgID, conn.RemoteAddr(), err)
		}
	}
}

func (b *RoomBroadcaster) write(conn network.Connection, msgID uint16, data []byte) error {
	if err := conn.Send(msgID, data); err != nil {
		return err
	}
	if b.counter != nil {
		b.counter.IncMessagesSent()
	}
	return nil
}
