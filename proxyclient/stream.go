package proxyclient

import (
	"context"
	"io"

	"github.com/LubyRuffy/rtprobe/sse"
)

// Stream 是一条打开的流式响应，Next 是唯一的挂起点。
type Stream struct {
	RequestID string
	body      io.ReadCloser
	reader    *sse.Reader
}

// NewStream 用任意响应体构造 Stream，便于替换传输层。
func NewStream(body io.ReadCloser, requestID string) *Stream {
	return &Stream{
		RequestID: requestID,
		body:      body,
		reader:    sse.NewReader(body),
	}
}

func (s *Stream) Next(ctx context.Context) (string, bool, error) {
	return s.reader.Next(ctx)
}

// Done 报告流是否以 [DONE] 哨兵优雅结束。
func (s *Stream) Done() bool {
	return s.reader.Done()
}

func (s *Stream) Frames() int {
	return s.reader.Frames()
}

func (s *Stream) Close() error {
	if s.body == nil {
		return nil
	}
	return s.body.Close()
}
