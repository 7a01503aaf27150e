// Package mockproxy 提供一个按脚本回放的 /v1/responses 流式端点，用于在没有真实代理时驱动往返探测。
//
// 该包对外只暴露：
// - net/http 形式的 handler
// - Gin 路由注册方法
//
// 回放规则：
// - 请求声明了工具且 input 中没有工具结果：下发工具调用（新版事件与旧版兼容事件交错）
// - input 中带工具结果：下发引用结果字段的文本
// - 其他情况：回显最后一条用户消息
//
// 使用示例：
//
//	r := gin.New()
//	_ = mockproxy.RegisterGinRoutes(r, mockproxy.Config{Token: "test-key"})
package mockproxy
