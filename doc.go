// Package rtprobe 用于驱动讲 Responses SSE 协议的流式代理，并校验工具调用的完整往返：
// 首轮请求 → 解析分片的 tool call → 执行工具 → 携带工具结果的续写请求 → 校验最终文本。
//
// 主要子包：
//  1. sse / event / collect：SSE 帧读取、事件解码、事件分发与聚合（纯函数式，无 I/O）
//  2. roundtrip：两轮往返状态机与协议不变量校验
//  3. proxyclient / responsesapi：出站请求构造与流式 HTTP 调用
//  4. toolkit：本地工具注册表与示例天气工具（eino tool 接口）
//  5. chatmodel：把代理包装为 eino ToolCallingChatModel，可直接交给 adk agent 使用
//  6. mockproxy：用于离线演示与测试的脚本化代理（gin）
//  7. config / history：YAML 配置与基于 sqlite 的探测历史
//
// 命令行入口见 cmd/rtprobe。
package rtprobe
