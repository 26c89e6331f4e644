package i

import "github.com/gin-gonic/gin"

// Controller registers its routes on a group. The router mounts every
// controller under each configured base URL.
type Controller interface {
	Register(*gin.RouterGroup)
}
