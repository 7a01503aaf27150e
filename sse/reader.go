// Package sse 把流式响应体切分为 SSE `data: ` 负载。
//
// 只识别单行 `data: <payload>`：空行、event/id/注释等其他字段一律静默跳过；
// 负载为 [DONE] 时正常结束。连接在哨兵之前关闭同样视为序列结束，
// 调用方可通过 Done() 区分优雅结束与中途断开。
package sse

import (
	"bufio"
	"context"
	"errors"
	"io"
	"strings"
)

const (
	// DataPrefix 是唯一被识别的 SSE 行前缀。
	DataPrefix = "data: "
	// DoneSentinel 是优雅结束流的负载。
	DoneSentinel = "[DONE]"
)

// Reader 是一次性的帧读取器，不可重启：新的序列需要新的连接。
type Reader struct {
	reader *bufio.Reader
	done   bool
	ended  bool
	frames int
}

func NewReader(body io.Reader) *Reader {
	return &Reader{reader: bufio.NewReader(body)}
}

// Next 返回下一个负载；ok=false 表示序列已结束（哨兵或 EOF）。
// 非 EOF 的读错误原样返回，序列随之结束。
func (r *Reader) Next(ctx context.Context) (string, bool, error) {
	if r.ended {
		return "", false, nil
	}

	for {
		if ctx.Err() != nil {
			r.ended = true
			return "", false, ctx.Err()
		}

		line, err := r.reader.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			r.ended = true
			return "", false, err
		}
		eof := err != nil

		// EOF 前的最后一行可能没有换行符，仍需处理。
		if payload, ok := payloadFromLine(line); ok {
			if payload == DoneSentinel {
				r.done = true
				r.ended = true
				return "", false, nil
			}
			r.frames++
			if eof {
				r.ended = true
			}
			return payload, true, nil
		}

		if eof {
			r.ended = true
			return "", false, nil
		}
	}
}

// Done 报告是否观察到了 [DONE] 哨兵。
func (r *Reader) Done() bool {
	return r.done
}

// Frames 返回已产出的负载数量（不含哨兵）。
func (r *Reader) Frames() int {
	return r.frames
}

func payloadFromLine(line string) (string, bool) {
	line = strings.TrimRight(line, "\r\n")
	if line == "" {
		return "", false
	}
	if !strings.HasPrefix(line, DataPrefix) {
		return "", false
	}
	return strings.TrimPrefix(line, DataPrefix), true
}
