package utils

import (
	"strings"

	"github.com/gin-gonic/gin"
)

// GetRealClientIP extracts the client IP, preferring X-Real-IP,
// then the first X-Forwarded-For entry, then gin's own resolution
func GetRealClientIP(c *gin.Context) string {
	if ip := c.GetHeader("X-Real-IP"); ip != "" {
		return ip
	}

	if xff := c.GetHeader("X-Forwarded-For"); xff != "" {
		ips := strings.Split(xff, ",")
		if len(ips) > 0 {
			return strings.TrimSpace(ips[0])
		}
	}

	return c.ClientIP()
}

// SplitList splits a comma separated value, dropping blanks
func SplitList(value string) []string {
	var items []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}
