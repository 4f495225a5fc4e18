package xe

import "github.com/go-orz/orz"

var (
	ErrInvalidParams = orz.NewError(10400, "参数无效")
	ErrNotFound      = orz.NewError(10404, "数据不存在")
)
