package xe

import "github.com/go-orz/orz"

var (
	ErrInvalidParams    = orz.NewError(10400, "参数无效")
	ErrInvalidToken     = orz.NewError(10403, "令牌无效")
	ErrPermissionDenied = orz.NewError(10401, "您没有权限查看/修改/删除此数据")

	ErrLogNotFound      = orz.NewError(10000, "日志记录不存在")
	ErrDuplicateLogID   = orz.NewError(10001, "日志ID已存在")
	ErrSessionNotFound  = orz.NewError(10002, "会话不存在")
	ErrDuplicateSession = orz.NewError(10003, "会话ID已存在")
	ErrInvalidInterval  = orz.NewError(10004, "时间粒度无效，仅支持 hour 或 day")
)
