package db

import (
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

type Link struct {
	ID            uuid.UUID          `json:"id"`
	Url           string             `json:"url"`
	Title         string             `json:"title"`
	ImageUrl      pgtype.Text        `json:"image_url"`
	PublishedDate pgtype.Text        `json:"published_date"`
	Tags          []string           `json:"tags"`
	Notes         pgtype.Text        `json:"notes"`
	ScrapedTitle  pgtype.Text        `json:"scraped_title"`
	ScrapedImage  pgtype.Text        `json:"scraped_image"`
	ScrapedDate   pgtype.Text        `json:"scraped_date"`
	CreatedAt     pgtype.Timestamptz `json:"created_at"`
}
