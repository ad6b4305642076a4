package mediahandler

import (
	"time"

	"songsyncgo/internal/media"
)

type DownloadBody struct {
	URL string `json:"url" binding:"required,url" example:"https://www.youtube.com/watch?v=dQw4w9WgXcQ"`
} // @name DownloadRequest

type SearchQuery struct {
	Query string `form:"query" binding:"required"`
} // @name SearchQuery

type ListMediaQuery struct {
	Kind   string `form:"kind"              binding:"omitempty,oneof=upload download"`
	Limit  int    `form:"limit,default=50"  binding:"gte=0,lte=200"`
	Offset int    `form:"offset,default=0"  binding:"gte=0"`
} // @name ListMediaQuery

type SearchResponse struct {
	Results []media.SearchResult `json:"results"`
} // @name SearchResponse

type DownloadResponse struct {
	Success  bool   `json:"success"`
	Message  string `json:"message"`
	FileName string `json:"fileName"`
	FileURL  string `json:"fileUrl"`
} // @name DownloadResponse

type UploadResponse struct {
	Success  bool   `json:"success"`
	Message  string `json:"message"`
	FileName string `json:"fileName,omitempty"`
	FileURL  string `json:"fileUrl,omitempty"`
} // @name UploadResponse

type DownloadedFile struct {
	File     string    `json:"file"`
	FileName string    `json:"fileName"`
	Size     int64     `json:"size"`
	Created  time.Time `json:"created"`
} // @name DownloadedFile

type ListDownloadsResponse struct {
	Success bool             `json:"success"`
	Count   int              `json:"count"`
	Files   []DownloadedFile `json:"files"`
} // @name ListDownloadsResponse

type ErrorResponse struct {
	Error string `json:"error"`
} // @name ErrorResponse
