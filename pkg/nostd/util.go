package nostd

import (
	"github.com/labstack/echo/v4"
)

const Token = "Lumen-Token"

// GetToken 依次从请求头、查询参数和Cookie中取令牌，
// 浏览器SSE等无法自定义请求头的场景用后两种方式携带
func GetToken(c echo.Context) string {
	token := c.Request().Header.Get(Token)
	if len(token) > 0 {
		return token
	}
	token = c.QueryParam(Token)
	if token != "" {
		return token
	}
	cookie, err := c.Cookie(Token)
	if err != nil {
		return ""
	}
	return cookie.Value
}
