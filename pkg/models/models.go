package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Collection names, shared by the GORM schema and the generic table API.
const (
	CollectionProfiles     = "profiles"
	CollectionStats        = "stats"
	CollectionHighlights   = "highlights"
	CollectionWorks        = "works"
	CollectionActivities   = "activities"
	CollectionCertificates = "certificates"
	CollectionPACategories = "pa_categories"
	CollectionPAIndicators = "pa_indicators"
	CollectionPAWorks      = "pa_works"
	CollectionPAImages     = "pa_indicator_images"
	CollectionMessages     = "messages"
)

// MaxActivityImages is the number of gallery images an activity may hold.
const MaxActivityImages = 4

// newID fills an empty primary key. Rows inserted through the generic table API get
// their id from the store instead.
func newID(id *string) {
	if *id == "" {
		*id = uuid.NewString()
	}
}

// Link is one entry of an external_links column.
type Link struct {
	Title string `json:"title"`
	URL   string `json:"url"`
}

// Profile is the single row describing the site owner. Its id equals the auth user id.
type Profile struct {
	ID                      string    `gorm:"type:uuid;primaryKey" json:"id"`
	FullName                string    `gorm:"not null" json:"full_name"`
	Position                *string   `json:"position"`
	Bio                     *string   `json:"bio"`
	TeachingPhilosophy      *string   `json:"teaching_philosophy"`
	ImageURL                *string   `json:"image_url"`
	StatsYears              *string   `json:"stats_years"`
	StatsStudents           *string   `json:"stats_students"`
	StatsAwards             *string   `json:"stats_awards"`
	Email                   *string   `json:"email"`
	Phone                   *string   `json:"phone"`
	Address                 *string   `json:"address"`
	Facebook                *string   `json:"facebook"`
	LineID                  *string   `json:"line_id"`
	WelcomeMessage1         *string   `gorm:"column:welcome_message_1" json:"welcome_message_1"`
	WelcomeMessage2         *string   `gorm:"column:welcome_message_2" json:"welcome_message_2"`
	HeroBadgeText           *string   `json:"hero_badge_text"`
	AboutShortDescription   *string   `json:"about_short_description"`
	AboutSectionBody        *string   `json:"about_section_body"`
	WorksDescription        *string   `json:"works_description"`
	CertificatesDescription *string   `json:"certificates_description"`
	ActivitiesDescription   *string   `json:"activities_description"`
	PADescription           *string   `gorm:"column:pa_description" json:"pa_description"`
	PAHeaderTitle           *string   `gorm:"column:pa_header_title" json:"pa_header_title"`
	PAHeaderSubtitle        *string   `gorm:"column:pa_header_subtitle" json:"pa_header_subtitle"`
	PABadgeText             *string   `gorm:"column:pa_badge_text" json:"pa_badge_text"`
	FacebookURL             *string   `json:"facebook_url"`
	LineURL                 *string   `json:"line_url"`
	GoogleMapURL            *string   `json:"google_map_url"`
	FooterText              *string   `json:"footer_text"`
	ContactDescription      *string   `json:"contact_description"`
	CreatedAt               time.Time `json:"created_at"`
}

func (Profile) TableName() string { return CollectionProfiles }

// BeforeCreate hook to generate ID if not set
func (p *Profile) BeforeCreate(tx *gorm.DB) error {
	newID(&p.ID)
	return nil
}

// Stat is one counter on the hero section ("15+ years").
type Stat struct {
	ID           string    `gorm:"type:uuid;primaryKey" json:"id"`
	Title        string    `gorm:"not null" json:"title"`
	Label        string    `gorm:"not null" json:"label"`
	IconName     string    `gorm:"not null" json:"icon_name"`
	ColorClass   string    `gorm:"not null" json:"color_class"`
	DisplayOrder *int      `gorm:"index" json:"display_order"`
	CreatedAt    time.Time `json:"created_at"`
}

func (Stat) TableName() string { return CollectionStats }

func (s *Stat) BeforeCreate(tx *gorm.DB) error {
	newID(&s.ID)
	return nil
}

// Highlight is one card of the about section.
type Highlight struct {
	ID           string    `gorm:"type:uuid;primaryKey" json:"id"`
	Title        string    `gorm:"not null" json:"title"`
	Description  string    `gorm:"not null" json:"description"`
	IconName     string    `gorm:"not null" json:"icon_name"`
	ColorClass   string    `gorm:"not null" json:"color_class"`
	BgClass      string    `gorm:"not null" json:"bg_class"`
	DisplayOrder *int      `gorm:"index" json:"display_order"`
	CreatedAt    time.Time `json:"created_at"`
}

func (Highlight) TableName() string { return CollectionHighlights }

func (h *Highlight) BeforeCreate(tx *gorm.DB) error {
	newID(&h.ID)
	return nil
}

// Work is a published teaching work. FileURL and Images reference blobs.
type Work struct {
	ID            string         `gorm:"type:uuid;primaryKey" json:"id"`
	Title         string         `gorm:"not null" json:"title"`
	Category      string         `gorm:"not null" json:"category"`
	Description   string         `gorm:"not null" json:"description"`
	IconName      string         `gorm:"not null" json:"icon_name"`
	ColorClass    string         `gorm:"not null" json:"color_class"`
	Views         int            `gorm:"not null;default:0" json:"views"`
	IsFeatured    bool           `gorm:"not null;default:false" json:"is_featured"`
	DisplayOrder  *int           `gorm:"index" json:"display_order"`
	FileURL       *string        `json:"file_url"`
	FileType      *string        `json:"file_type"`
	ExternalLinks datatypes.JSON `gorm:"type:jsonb" json:"external_links"`
	Images        StringList     `gorm:"type:jsonb" json:"images"`
	CreatedAt     time.Time      `json:"created_at"`
}

func (Work) TableName() string { return CollectionWorks }

func (w *Work) BeforeCreate(tx *gorm.DB) error {
	newID(&w.ID)
	return nil
}

// Activity is a past event. Images holds up to MaxActivityImages blob URLs; FileURL is
// the legacy single-image column still present on older rows.
type Activity struct {
	ID                 string         `gorm:"type:uuid;primaryKey" json:"id"`
	Title              string         `gorm:"not null" json:"title"`
	DateDisplay        string         `gorm:"not null" json:"date_display"`
	Location           string         `gorm:"not null" json:"location"`
	Participants       *int           `json:"participants"`
	Description        string         `gorm:"not null" json:"description"`
	ImageEmoji         *string        `json:"image_emoji"`
	ColorGradientClass *string        `json:"color_gradient_class"`
	DisplayOrder       *int           `gorm:"index" json:"display_order"`
	FileURL            *string        `json:"file_url"`
	FileType           *string        `json:"file_type"`
	ExternalLinks      datatypes.JSON `gorm:"type:jsonb" json:"external_links"`
	Images             StringList     `gorm:"type:jsonb" json:"images"`
	CreatedAt          time.Time      `json:"created_at"`
}

func (Activity) TableName() string { return CollectionActivities }

func (a *Activity) BeforeCreate(tx *gorm.DB) error {
	newID(&a.ID)
	return nil
}

// Certificate is an award or training record.
type Certificate struct {
	ID            string         `gorm:"type:uuid;primaryKey" json:"id"`
	Title         string         `gorm:"not null" json:"title"`
	Issuer        string         `gorm:"not null" json:"issuer"`
	Year          string         `gorm:"not null" json:"year"`
	Type          string         `gorm:"not null" json:"type"`
	IconName      string         `gorm:"not null" json:"icon_name"`
	ColorClass    string         `gorm:"not null" json:"color_class"`
	BgClass       string         `gorm:"not null" json:"bg_class"`
	DisplayOrder  *int           `gorm:"index" json:"display_order"`
	FileURL       *string        `json:"file_url"`
	FileType      *string        `json:"file_type"`
	ExternalLinks datatypes.JSON `gorm:"type:jsonb" json:"external_links"`
	CreatedAt     time.Time      `json:"created_at"`
}

func (Certificate) TableName() string { return CollectionCertificates }

func (c *Certificate) BeforeCreate(tx *gorm.DB) error {
	newID(&c.ID)
	return nil
}

// PACategory is the top level of the performance agreement tree.
type PACategory struct {
	ID             string    `gorm:"type:uuid;primaryKey" json:"id"`
	CategoryNumber int       `gorm:"not null" json:"category_number"`
	Title          string    `gorm:"not null" json:"title"`
	Icon           string    `gorm:"not null" json:"icon"`
	Color          string    `gorm:"not null" json:"color"`
	CreatedAt      time.Time `json:"created_at"`
}

func (PACategory) TableName() string { return CollectionPACategories }

func (c *PACategory) BeforeCreate(tx *gorm.DB) error {
	newID(&c.ID)
	return nil
}

// PAIndicator belongs to a PACategory.
type PAIndicator struct {
	ID              string      `gorm:"type:uuid;primaryKey" json:"id"`
	CategoryID      string      `gorm:"type:uuid;not null;index" json:"category_id"`
	Category        *PACategory `gorm:"foreignKey:CategoryID" json:"-"`
	IndicatorNumber string      `gorm:"not null" json:"indicator_number"`
	Name            string      `gorm:"not null" json:"name"`
	Description     *string     `json:"description"`
	CreatedAt       time.Time   `json:"created_at"`
}

func (PAIndicator) TableName() string { return CollectionPAIndicators }

func (i *PAIndicator) BeforeCreate(tx *gorm.DB) error {
	newID(&i.ID)
	return nil
}

// PAWorkTypeLink marks a PAWork whose URL is an external page rather than an upload.
const PAWorkTypeLink = "link"

// PAWork is a piece of evidence under an indicator. URL references a blob unless
// WorkType is PAWorkTypeLink.
type PAWork struct {
	ID          string       `gorm:"type:uuid;primaryKey" json:"id"`
	IndicatorID string       `gorm:"type:uuid;not null;index" json:"indicator_id"`
	Indicator   *PAIndicator `gorm:"foreignKey:IndicatorID" json:"-"`
	WorkType    string       `gorm:"not null" json:"work_type"`
	Title       string       `gorm:"not null" json:"title"`
	URL         *string      `json:"url"`
	SortOrder   int          `gorm:"not null;default:0" json:"sort_order"`
	CreatedAt   time.Time    `json:"created_at"`
}

func (PAWork) TableName() string { return CollectionPAWorks }

func (w *PAWork) BeforeCreate(tx *gorm.DB) error {
	newID(&w.ID)
	return nil
}

// PAImage is a photo under an indicator.
type PAImage struct {
	ID          string       `gorm:"type:uuid;primaryKey" json:"id"`
	IndicatorID string       `gorm:"type:uuid;not null;index" json:"indicator_id"`
	Indicator   *PAIndicator `gorm:"foreignKey:IndicatorID" json:"-"`
	ImageURL    string       `gorm:"not null" json:"image_url"`
	Caption     *string      `json:"caption"`
	SortOrder   int          `gorm:"not null;default:0" json:"sort_order"`
	CreatedAt   time.Time    `json:"created_at"`
}

func (PAImage) TableName() string { return CollectionPAImages }

func (i *PAImage) BeforeCreate(tx *gorm.DB) error {
	newID(&i.ID)
	return nil
}

// Message is a contact form submission.
type Message struct {
	ID        string    `gorm:"type:uuid;primaryKey" json:"id"`
	Name      string    `gorm:"not null" json:"name"`
	Email     string    `gorm:"not null" json:"email"`
	Message   string    `gorm:"type:text;not null" json:"message"`
	IsRead    bool      `gorm:"not null;default:false" json:"is_read"`
	CreatedAt time.Time `json:"created_at"`
}

func (Message) TableName() string { return CollectionMessages }

func (m *Message) BeforeCreate(tx *gorm.DB) error {
	newID(&m.ID)
	return nil
}

// All returns one zero value of every model, in dependency order, for AutoMigrate.
func All() []any {
	return []any{
		&Profile{},
		&Stat{},
		&Highlight{},
		&Work{},
		&Activity{},
		&Certificate{},
		&PACategory{},
		&PAIndicator{},
		&PAWork{},
		&PAImage{},
		&Message{},
	}
}
