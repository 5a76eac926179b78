package db

import (
	"github.com/gin-gonic/gin"
	"github.com/jinzhu/gorm"
)

const dbKey = "db"
const storeKey = "store"

// SetDBtoContext exposes the raw connection (auth tables) and the Store to handlers.
func SetDBtoContext(database *gorm.DB, store *Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(dbKey, database)
		c.Set(storeKey, store)
		c.Next()
	}
}

func DBInstance(c *gin.Context) *gorm.DB {
	v, ok := c.Get(dbKey)
	if !ok {
		return nil
	}
	db, _ := v.(*gorm.DB)
	return db
}

func StoreInstance(c *gin.Context) *Store {
	v, ok := c.Get(storeKey)
	if !ok {
		return nil
	}
	s, _ := v.(*Store)
	return s
}
