// Package idgen 提供递增 ID 生成器
//
// 使用 Sonyflake 算法生成全局唯一且递增的 ID，用于标识每个入站请求。
// 请求 ID 会写入日志上下文，并在登录失败、错误响应中返回给用户，
// 方便排查问题时关联日志。
//
// 生成的 ID 格式：
//   - 请求 ID: req-{递增数字}
//
// 使用方式：
//
//	requestID, err := idgen.DefaultGenerator().GenerateRequestID()
//	// requestID: "req-1234567890"
package idgen
