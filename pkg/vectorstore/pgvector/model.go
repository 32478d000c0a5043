package pgvector

import (
	"time"

	"github.com/pgvector/pgvector-go"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// VectorIndex registers a named index and its dimension.
type VectorIndex struct {
	Name      string    `gorm:"type:varchar(128);primaryKey"`
	Dimension int       `gorm:"not null"`
	Metric    string    `gorm:"type:varchar(32);not null;default:'cosine'"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}

func (VectorIndex) TableName() string {
	return "vector_indexes"
}

// VectorRecord is one stored chunk. The embedding column is untyped so that
// indexes of different dimensions share the table.
type VectorRecord struct {
	IndexName string            `gorm:"type:varchar(128);primaryKey"`
	Namespace string            `gorm:"type:varchar(128);primaryKey"`
	Id        string            `gorm:"type:varchar(256);primaryKey"`
	Embedding pgvector.Vector   `gorm:"type:vector;not null"`
	Metadata  datatypes.JSONMap `gorm:"type:jsonb"`
	CreatedAt time.Time         `gorm:"autoCreateTime"`
	UpdatedAt time.Time         `gorm:"autoUpdateTime"`
}

func (VectorRecord) TableName() string {
	return "vector_records"
}

// Migrate enables the vector extension and creates the backend tables.
func Migrate(db *gorm.DB) error {
	if err := db.Exec("CREATE EXTENSION IF NOT EXISTS vector").Error; err != nil {
		return err
	}
	return db.AutoMigrate(&VectorIndex{}, &VectorRecord{})
}
