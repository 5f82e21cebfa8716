package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func BindJson(c *gin.Context, obj interface{}) error {
	if err := c.ShouldBindJSON(obj); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request format",
		})
		return err
	}
	return nil
}

const userIDContextKey = "auth_user_id"

// RequireUser 從上游認證層帶入的 X-User-ID 取出信任的使用者身分。
// 認證本身在上游完成，這裡只負責把身分放進 request context。
func RequireUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetHeader("X-User-ID")
		if userID == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Missing user identity",
			})
			return
		}
		c.Set(userIDContextKey, userID)
		c.Next()
	}
}

// UserID 取出 RequireUser 放入的使用者身分
func UserID(c *gin.Context) string {
	return c.GetString(userIDContextKey)
}
