// internal/store/templates.go
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"assessment-engine/internal/common/errors"
	"assessment-engine/internal/common/logger"
	"assessment-engine/internal/models"
)

// TemplateStore reads published template definitions. Definitions are
// immutable once published, so a plain TTL cache-aside through Redis is
// safe.
type TemplateStore struct {
	db       *sql.DB
	redis    *redis.Client
	cacheTTL time.Duration
	logger   logger.Logger
}

func NewTemplateStore(db *sql.DB, rdb *redis.Client, cacheTTL time.Duration, log logger.Logger) *TemplateStore {
	return &TemplateStore{
		db:       db,
		redis:    rdb,
		cacheTTL: cacheTTL,
		logger:   log.WithFields(map[string]interface{}{"store": "templates"}),
	}
}

func templateCacheKey(id string) string {
	return "template:" + id
}

// Get loads a template by ID, consulting the cache first.
func (s *TemplateStore) Get(ctx context.Context, id string) (*models.Template, error) {
	if s.redis != nil {
		if val, err := s.redis.Get(ctx, templateCacheKey(id)).Result(); err == nil {
			var tmpl models.Template
			if err := json.Unmarshal([]byte(val), &tmpl); err == nil {
				return &tmpl, nil
			}
		}
	}

	row := s.db.QueryRowContext(ctx, `
		SELECT id, agency_id, parent_template_id, name, version, published, definition
		FROM templates WHERE id = $1`, id)

	var tmpl models.Template
	var parentID sql.NullString
	var definition []byte
	err := row.Scan(&tmpl.ID, &tmpl.AgencyID, &parentID, &tmpl.Name, &tmpl.Version, &tmpl.Published, &definition)
	if err == sql.ErrNoRows {
		return nil, errors.NewTemplateNotFoundError(id)
	}
	if err != nil {
		return nil, errors.NewQueryExecutionFailedError("template get", err)
	}

	// The definition column carries the scale, rater configuration and
	// competency tree; identity columns win over whatever it embeds.
	var def models.Template
	if err := json.Unmarshal(definition, &def); err != nil {
		return nil, errors.NewInvalidTemplateConfigError("template definition is not valid JSON: " + err.Error())
	}
	def.ID = tmpl.ID
	def.AgencyID = tmpl.AgencyID
	def.Name = tmpl.Name
	def.Version = tmpl.Version
	def.Published = tmpl.Published
	if parentID.Valid {
		def.ParentTemplateID = &parentID.String
	}

	if s.redis != nil {
		if data, err := json.Marshal(&def); err == nil {
			if err := s.redis.Set(ctx, templateCacheKey(id), data, s.cacheTTL).Err(); err != nil {
				s.logger.Warn("template cache write failed", map[string]interface{}{
					"templateId": id,
					"error":      err,
				})
			}
		}
	}

	return &def, nil
}
