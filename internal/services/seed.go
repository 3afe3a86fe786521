package services

import (
	"context"
	"fmt"
	"io"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/fpda/academy-backend/internal/data/aggregates"
	"github.com/fpda/academy-backend/internal/data/repos"
	types "github.com/fpda/academy-backend/internal/domain"
	domainagg "github.com/fpda/academy-backend/internal/domain/aggregates"
	"github.com/fpda/academy-backend/internal/pkg/dbctx"
	"github.com/fpda/academy-backend/internal/pkg/logger"
)

var slugPattern = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)

// IsValidSlug reports whether s is a lowercase, dash separated slug.
func IsValidSlug(s string) bool {
	return slugPattern.MatchString(s)
}

type SeedCatalog struct {
	Instructors []SeedInstructor `yaml:"instructors"`
	Courses     []SeedCourse     `yaml:"courses"`
}

type SeedInstructor struct {
	Name      string `yaml:"name"`
	Title     string `yaml:"title"`
	Bio       string `yaml:"bio"`
	AvatarURL string `yaml:"avatar_url"`
}

type SeedCourse struct {
	Title                 string       `yaml:"title"`
	Slug                  string       `yaml:"slug"`
	Description           string       `yaml:"description"`
	LongDescription       string       `yaml:"long_description"`
	ThumbnailURL          string       `yaml:"thumbnail_url"`
	Price                 float64      `yaml:"price"`
	DurationHours         int          `yaml:"duration_hours"`
	Level                 string       `yaml:"level"`
	Published             bool         `yaml:"published"`
	CertificationIncluded bool         `yaml:"certification_included"`
	PaymentLinkURL        string       `yaml:"payment_link_url"`
	Instructor            string       `yaml:"instructor"`
	Modules               []SeedModule `yaml:"modules"`
}

type SeedModule struct {
	Title       string       `yaml:"title"`
	Description string       `yaml:"description"`
	Lessons     []SeedLesson `yaml:"lessons"`
	Quiz        *SeedQuiz    `yaml:"quiz"`
}

type SeedLesson struct {
	Title           string `yaml:"title"`
	Content         string `yaml:"content"`
	VideoURL        string `yaml:"video_url"`
	DurationMinutes int    `yaml:"duration_minutes"`
	FreePreview     bool   `yaml:"free_preview"`
}

type SeedQuiz struct {
	Title            string         `yaml:"title"`
	Description      string         `yaml:"description"`
	Instructions     string         `yaml:"instructions"`
	TimeLimitMinutes *int           `yaml:"time_limit_minutes"`
	PassingScore     int            `yaml:"passing_score"`
	MaxAttempts      *int           `yaml:"max_attempts"`
	Questions        []SeedQuestion `yaml:"questions"`
}

type SeedQuestion struct {
	Text        string       `yaml:"text"`
	Type        string       `yaml:"type"`
	Points      int          `yaml:"points"`
	Explanation string       `yaml:"explanation"`
	Options     []SeedOption `yaml:"options"`
}

type SeedOption struct {
	Text    string `yaml:"text"`
	Correct bool   `yaml:"correct"`
}

type SeedReport struct {
	Instructors int
	Courses     int
	Modules     int
	Lessons     int
	Quizzes     int
}

// ParseSeedCatalog decodes and validates a YAML catalog. Unknown keys are
// rejected so typos do not silently drop content.
func ParseSeedCatalog(r io.Reader) (*SeedCatalog, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	var cat SeedCatalog
	if err := dec.Decode(&cat); err != nil && err != io.EOF {
		return nil, domainagg.Wrap(domainagg.CodeValidation, "seed.parse", err)
	}
	if err := cat.Validate(); err != nil {
		return nil, err
	}
	return &cat, nil
}

func (c *SeedCatalog) Validate() error {
	const op = "seed.validate"
	invalid := func(format string, args ...any) error {
		return domainagg.NewError(domainagg.CodeValidation, op, fmt.Sprintf(format, args...), nil)
	}
	known := map[string]bool{}
	for _, in := range c.Instructors {
		name := strings.TrimSpace(in.Name)
		if name == "" {
			return invalid("instructor name is required")
		}
		known[name] = true
	}
	slugs := map[string]bool{}
	for ci, course := range c.Courses {
		if strings.TrimSpace(course.Title) == "" {
			return invalid("course %d: title is required", ci)
		}
		if !IsValidSlug(course.Slug) {
			return invalid("course %q: invalid slug", course.Slug)
		}
		if slugs[course.Slug] {
			return invalid("course %q: duplicate slug", course.Slug)
		}
		slugs[course.Slug] = true
		if course.Level != "" && !types.IsValidLevel(course.Level) {
			return invalid("course %q: unknown level %q", course.Slug, course.Level)
		}
		if course.Price < 0 {
			return invalid("course %q: negative price", course.Slug)
		}
		if name := strings.TrimSpace(course.Instructor); name != "" && !known[name] {
			return invalid("course %q: unknown instructor %q", course.Slug, name)
		}
		for mi, m := range course.Modules {
			if strings.TrimSpace(m.Title) == "" {
				return invalid("course %q module %d: title is required", course.Slug, mi)
			}
			for li, l := range m.Lessons {
				if strings.TrimSpace(l.Title) == "" {
					return invalid("course %q module %d lesson %d: title is required", course.Slug, mi, li)
				}
			}
			if m.Quiz != nil {
				if err := validateSeedQuiz(m.Quiz); err != nil {
					return invalid("course %q module %d: %v", course.Slug, mi, err)
				}
			}
		}
	}
	return nil
}

func validateSeedQuiz(q *SeedQuiz) error {
	if strings.TrimSpace(q.Title) == "" {
		return fmt.Errorf("quiz title is required")
	}
	if q.PassingScore < 0 || q.PassingScore > 100 {
		return fmt.Errorf("passing score must be within 0..100")
	}
	for qi, question := range q.Questions {
		switch question.Type {
		case types.QuestionMultipleChoice, types.QuestionTrueFalse:
			correct := 0
			for _, o := range question.Options {
				if o.Correct {
					correct++
				}
			}
			if correct != 1 {
				return fmt.Errorf("question %d needs exactly one correct option", qi)
			}
		case types.QuestionShortAnswer, types.QuestionEssay:
		default:
			return fmt.Errorf("question %d: unknown type %q", qi, question.Type)
		}
	}
	return nil
}

type SeedService interface {
	Apply(ctx context.Context, cat *SeedCatalog) (SeedReport, error)
}

type seedService struct {
	tx             aggregates.TxRunner
	log            *logger.Logger
	instructorRepo repos.InstructorRepo
	courseRepo     repos.CourseRepo
	moduleRepo     repos.CourseModuleRepo
	lessonRepo     repos.CourseLessonRepo
	quizRepo       repos.QuizRepo
	catalog        CatalogService
}

func NewSeedService(
	tx aggregates.TxRunner,
	log *logger.Logger,
	instructorRepo repos.InstructorRepo,
	courseRepo repos.CourseRepo,
	moduleRepo repos.CourseModuleRepo,
	lessonRepo repos.CourseLessonRepo,
	quizRepo repos.QuizRepo,
	catalog CatalogService,
) SeedService {
	return &seedService{
		tx:             tx,
		log:            log.With("service", "SeedService"),
		instructorRepo: instructorRepo,
		courseRepo:     courseRepo,
		moduleRepo:     moduleRepo,
		lessonRepo:     lessonRepo,
		quizRepo:       quizRepo,
		catalog:        catalog,
	}
}

// Apply upserts the catalog in one transaction: courses by slug, modules
// and lessons by (parent, order_index). Module quizzes are replaced.
func (ss *seedService) Apply(ctx context.Context, cat *SeedCatalog) (SeedReport, error) {
	const op = "seed.apply"
	var report SeedReport
	if cat == nil {
		return report, nil
	}
	if err := cat.Validate(); err != nil {
		return report, err
	}

	err := ss.tx.InTx(ctx, func(dbc dbctx.Context) error {
		instructors := map[string]*types.Instructor{}
		for _, in := range cat.Instructors {
			row, err := ss.upsertInstructor(dbc, in)
			if err != nil {
				return err
			}
			instructors[row.Name] = row
			report.Instructors++
		}
		for _, sc := range cat.Courses {
			if err := ss.upsertCourse(dbc, sc, instructors, &report); err != nil {
				return fmt.Errorf("course %q: %w", sc.Slug, err)
			}
		}
		return nil
	})
	if err != nil {
		return SeedReport{}, aggregates.MapError(op, err)
	}

	if ss.catalog != nil {
		for _, sc := range cat.Courses {
			ss.catalog.Invalidate(ctx, sc.Slug)
		}
	}
	ss.log.Info("Catalog seeded",
		"instructors", report.Instructors,
		"courses", report.Courses,
		"modules", report.Modules,
		"lessons", report.Lessons,
		"quizzes", report.Quizzes,
	)
	return report, nil
}

func (ss *seedService) upsertInstructor(dbc dbctx.Context, in SeedInstructor) (*types.Instructor, error) {
	name := strings.TrimSpace(in.Name)
	row, err := ss.instructorRepo.GetByName(dbc, name)
	if err != nil {
		return nil, err
	}
	if row == nil {
		row = &types.Instructor{Name: name}
	}
	row.Title = in.Title
	row.Bio = in.Bio
	row.AvatarURL = in.AvatarURL
	if row.ID == uuid.Nil {
		created, err := ss.instructorRepo.Create(dbc, []*types.Instructor{row})
		if err != nil {
			return nil, err
		}
		return created[0], nil
	}
	return row, ss.instructorRepo.Save(dbc, row)
}

func (ss *seedService) upsertCourse(dbc dbctx.Context, sc SeedCourse, instructors map[string]*types.Instructor, report *SeedReport) error {
	level := strings.ToLower(strings.TrimSpace(sc.Level))
	if level == "" {
		level = types.LevelBeginner
	}
	course := &types.Course{
		Title:                 strings.TrimSpace(sc.Title),
		Slug:                  sc.Slug,
		Description:           sc.Description,
		LongDescription:       sc.LongDescription,
		ThumbnailURL:          sc.ThumbnailURL,
		Price:                 sc.Price,
		DurationHours:         sc.DurationHours,
		Level:                 level,
		IsPublished:           sc.Published,
		CertificationIncluded: sc.CertificationIncluded,
		PaymentLinkURL:        sc.PaymentLinkURL,
		UpdatedAt:             time.Now().UTC(),
	}
	if in := instructors[strings.TrimSpace(sc.Instructor)]; in != nil {
		id := in.ID
		course.InstructorID = &id
	}
	saved, err := ss.courseRepo.UpsertBySlug(dbc, course)
	if err != nil {
		return err
	}
	if saved == nil {
		return fmt.Errorf("course vanished after upsert")
	}
	report.Courses++

	existing, err := ss.moduleRepo.GetByCourseID(dbc, saved.ID)
	if err != nil {
		return err
	}
	byOrder := make(map[int]*types.CourseModule, len(existing))
	for _, m := range existing {
		byOrder[m.OrderIndex] = m
	}

	for i, sm := range sc.Modules {
		m := byOrder[i]
		if m == nil {
			m = &types.CourseModule{CourseID: saved.ID, OrderIndex: i}
		}
		m.Title = strings.TrimSpace(sm.Title)
		m.Description = sm.Description
		if m.ID == uuid.Nil {
			if _, err := ss.moduleRepo.Create(dbc, []*types.CourseModule{m}); err != nil {
				return err
			}
		} else if err := ss.moduleRepo.Save(dbc, m); err != nil {
			return err
		}
		report.Modules++

		if err := ss.upsertLessons(dbc, m, sm.Lessons, report); err != nil {
			return err
		}
		if err := ss.replaceQuiz(dbc, saved.ID, m.ID, sm.Quiz, report); err != nil {
			return err
		}
	}
	return nil
}

func (ss *seedService) upsertLessons(dbc dbctx.Context, m *types.CourseModule, lessons []SeedLesson, report *SeedReport) error {
	existing, err := ss.lessonRepo.GetByModuleID(dbc, m.ID)
	if err != nil {
		return err
	}
	byOrder := make(map[int]*types.CourseLesson, len(existing))
	for _, l := range existing {
		byOrder[l.OrderIndex] = l
	}
	for i, sl := range lessons {
		l := byOrder[i]
		if l == nil {
			l = &types.CourseLesson{ModuleID: m.ID, OrderIndex: i}
		}
		l.Title = strings.TrimSpace(sl.Title)
		l.Content = sl.Content
		l.VideoURL = sl.VideoURL
		l.DurationMinutes = sl.DurationMinutes
		l.IsFreePreview = sl.FreePreview
		if l.ID == uuid.Nil {
			if _, err := ss.lessonRepo.Create(dbc, []*types.CourseLesson{l}); err != nil {
				return err
			}
		} else if err := ss.lessonRepo.Save(dbc, l); err != nil {
			return err
		}
		report.Lessons++
	}
	return nil
}

func (ss *seedService) replaceQuiz(dbc dbctx.Context, courseID, moduleID uuid.UUID, sq *SeedQuiz, report *SeedReport) error {
	if err := ss.quizRepo.DeleteByModuleID(dbc, moduleID); err != nil {
		return err
	}
	if sq == nil {
		return nil
	}
	quiz := &types.CourseQuiz{
		CourseID:         courseID,
		ModuleID:         moduleID,
		Title:            strings.TrimSpace(sq.Title),
		Description:      sq.Description,
		Instructions:     sq.Instructions,
		TimeLimitMinutes: sq.TimeLimitMinutes,
		PassingScore:     sq.PassingScore,
		MaxAttempts:      sq.MaxAttempts,
	}
	for qi, q := range sq.Questions {
		points := q.Points
		if points <= 0 {
			points = 1
		}
		question := &types.QuizQuestion{
			QuestionText: strings.TrimSpace(q.Text),
			QuestionType: q.Type,
			Points:       points,
			OrderIndex:   qi,
			Explanation:  q.Explanation,
		}
		for oi, o := range q.Options {
			question.Options = append(question.Options, &types.QuizQuestionOption{
				OptionText: strings.TrimSpace(o.Text),
				IsCorrect:  o.Correct,
				OrderIndex: oi,
			})
		}
		quiz.Questions = append(quiz.Questions, question)
	}
	if _, err := ss.quizRepo.Create(dbc, quiz); err != nil {
		return err
	}
	report.Quizzes++
	return nil
}
