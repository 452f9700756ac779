package repository

import (
	"database/sql"

	"github.com/encanta/encanta/internal/domain"
)

func NewBrandProfileRepository(db *sql.DB) domain.BrandProfileRepository {
	return newPGResource(db, brandProfileMapping)
}

func NewDocumentRepository(db *sql.DB) domain.DocumentRepository {
	return newPGResource(db, documentMapping)
}

func NewContentProjectRepository(db *sql.DB) domain.ContentProjectRepository {
	return newPGResource(db, contentProjectMapping)
}

func NewCommentRepository(db *sql.DB) domain.CommentRepository {
	return newPGResource(db, commentMapping)
}

func NewKnowledgeFileRepository(db *sql.DB) domain.KnowledgeFileRepository {
	return newPGResource(db, knowledgeFileMapping)
}

var brandProfileMapping = tableMapping[domain.BrandProfile, domain.BrandProfilePatch]{
	entity: "brand profile",
	table:  "brand_profiles",
	columns: []string{
		"id", "workspace_id", "name", "description", "brand_voice",
		"target_audience", "key_messages", "created_at", "updated_at",
	},
	scope: "workspace_id",
	values: func(b *domain.BrandProfile) []interface{} {
		return []interface{}{
			b.ID, b.WorkspaceID, b.Name, b.Description, b.BrandVoice,
			b.TargetAudience, b.KeyMessages, b.CreatedAt, b.UpdatedAt,
		}
	},
	scan: func(row rowScanner) (*domain.BrandProfile, error) {
		var b domain.BrandProfile
		err := row.Scan(
			&b.ID, &b.WorkspaceID, &b.Name, &b.Description, &b.BrandVoice,
			&b.TargetAudience, &b.KeyMessages, &b.CreatedAt, &b.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		return &b, nil
	},
	changes: func(p domain.BrandProfilePatch) []change {
		var cs []change
		if p.Name != nil {
			cs = append(cs, change{"name", *p.Name})
		}
		if p.Description != nil {
			cs = append(cs, change{"description", *p.Description})
		}
		if p.BrandVoice != nil {
			cs = append(cs, change{"brand_voice", *p.BrandVoice})
		}
		if p.TargetAudience != nil {
			cs = append(cs, change{"target_audience", *p.TargetAudience})
		}
		if p.KeyMessages != nil {
			cs = append(cs, change{"key_messages", *p.KeyMessages})
		}
		return cs
	},
}

var documentMapping = tableMapping[domain.Document, domain.DocumentPatch]{
	entity: "document",
	table:  "documents",
	columns: []string{
		"id", "workspace_id", "brand_profile_id", "title", "content",
		"type", "status", "created_by", "created_at", "updated_at",
	},
	scope: "workspace_id",
	filters: map[string]string{
		"status":           "status",
		"type":             "type",
		"brand_profile_id": "brand_profile_id",
	},
	values: func(d *domain.Document) []interface{} {
		return []interface{}{
			d.ID, d.WorkspaceID, d.BrandProfileID, d.Title, d.Content,
			d.Type, d.Status, d.CreatedBy, d.CreatedAt, d.UpdatedAt,
		}
	},
	scan: func(row rowScanner) (*domain.Document, error) {
		var d domain.Document
		err := row.Scan(
			&d.ID, &d.WorkspaceID, &d.BrandProfileID, &d.Title, &d.Content,
			&d.Type, &d.Status, &d.CreatedBy, &d.CreatedAt, &d.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		return &d, nil
	},
	changes: func(p domain.DocumentPatch) []change {
		var cs []change
		if p.BrandProfileID != nil {
			cs = append(cs, change{"brand_profile_id", *p.BrandProfileID})
		}
		if p.Title != nil {
			cs = append(cs, change{"title", *p.Title})
		}
		if p.Content != nil {
			cs = append(cs, change{"content", *p.Content})
		}
		if p.Type != nil {
			cs = append(cs, change{"type", *p.Type})
		}
		if p.Status != nil {
			cs = append(cs, change{"status", *p.Status})
		}
		return cs
	},
}

var contentProjectMapping = tableMapping[domain.ContentProject, domain.ContentProjectPatch]{
	entity: "content project",
	table:  "content_projects",
	columns: []string{
		"id", "workspace_id", "brand_profile_id", "name", "description",
		"status", "created_by", "created_at", "updated_at",
	},
	scope: "workspace_id",
	filters: map[string]string{
		"status":           "status",
		"brand_profile_id": "brand_profile_id",
	},
	values: func(c *domain.ContentProject) []interface{} {
		return []interface{}{
			c.ID, c.WorkspaceID, c.BrandProfileID, c.Name, c.Description,
			c.Status, c.CreatedBy, c.CreatedAt, c.UpdatedAt,
		}
	},
	scan: func(row rowScanner) (*domain.ContentProject, error) {
		var c domain.ContentProject
		err := row.Scan(
			&c.ID, &c.WorkspaceID, &c.BrandProfileID, &c.Name, &c.Description,
			&c.Status, &c.CreatedBy, &c.CreatedAt, &c.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		return &c, nil
	},
	changes: func(p domain.ContentProjectPatch) []change {
		var cs []change
		if p.BrandProfileID != nil {
			cs = append(cs, change{"brand_profile_id", *p.BrandProfileID})
		}
		if p.Name != nil {
			cs = append(cs, change{"name", *p.Name})
		}
		if p.Description != nil {
			cs = append(cs, change{"description", *p.Description})
		}
		if p.Status != nil {
			cs = append(cs, change{"status", *p.Status})
		}
		return cs
	},
}

// Comments are scoped to their document rather than directly to a workspace
var commentMapping = tableMapping[domain.Comment, domain.CommentPatch]{
	entity:  "comment",
	table:   "comments",
	columns: []string{"id", "document_id", "user_id", "content", "created_at", "updated_at"},
	scope:   "document_id",
	values: func(c *domain.Comment) []interface{} {
		return []interface{}{c.ID, c.DocumentID, c.UserID, c.Content, c.CreatedAt, c.UpdatedAt}
	},
	scan: func(row rowScanner) (*domain.Comment, error) {
		var c domain.Comment
		if err := row.Scan(&c.ID, &c.DocumentID, &c.UserID, &c.Content, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		return &c, nil
	},
	changes: func(p domain.CommentPatch) []change {
		if p.Content == nil {
			return nil
		}
		return []change{{"content", *p.Content}}
	},
}

var knowledgeFileMapping = tableMapping[domain.KnowledgeFile, domain.KnowledgeFilePatch]{
	entity: "knowledge file",
	table:  "knowledge_files",
	columns: []string{
		"id", "workspace_id", "name", "description", "file_url",
		"file_type", "uploaded_by", "created_at", "updated_at",
	},
	scope: "workspace_id",
	filters: map[string]string{
		"file_type": "file_type",
	},
	values: func(k *domain.KnowledgeFile) []interface{} {
		return []interface{}{
			k.ID, k.WorkspaceID, k.Name, k.Description, k.FileURL,
			k.FileType, k.UploadedBy, k.CreatedAt, k.UpdatedAt,
		}
	},
	scan: func(row rowScanner) (*domain.KnowledgeFile, error) {
		var k domain.KnowledgeFile
		err := row.Scan(
			&k.ID, &k.WorkspaceID, &k.Name, &k.Description, &k.FileURL,
			&k.FileType, &k.UploadedBy, &k.CreatedAt, &k.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		return &k, nil
	},
	changes: func(p domain.KnowledgeFilePatch) []change {
		var cs []change
		if p.Name != nil {
			cs = append(cs, change{"name", *p.Name})
		}
		if p.Description != nil {
			cs = append(cs, change{"description", *p.Description})
		}
		if p.FileURL != nil {
			cs = append(cs, change{"file_url", *p.FileURL})
		}
		if p.FileType != nil {
			cs = append(cs, change{"file_type", *p.FileType})
		}
		return cs
	},
}
