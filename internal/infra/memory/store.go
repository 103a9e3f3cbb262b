package memory

import (
	"context"
	"math/rand"
	"sort"
	"sync"
	"time"

	"zoo-quiz-service/internal/domain"
)

// Store is an in-memory implementation of app.Store.
type Store struct {
	mu               sync.RWMutex
	classrooms       map[string]domain.Classroom
	students         map[string]domain.Student
	subjects         map[string]domain.Subject
	questions        map[string]domain.Question
	sessions         map[string]domain.PlaySession
	answers          map[string][]domain.AnswerRecord
	challenges       map[string]domain.DailyChallenge
	challengeAnswers map[string]domain.ChallengeAnswer
	rnd              *rand.Rand
}

func NewStore() *Store {
	return &Store{
		classrooms:       make(map[string]domain.Classroom),
		students:         make(map[string]domain.Student),
		subjects:         make(map[string]domain.Subject),
		questions:        make(map[string]domain.Question),
		sessions:         make(map[string]domain.PlaySession),
		answers:          make(map[string][]domain.AnswerRecord),
		challenges:       make(map[string]domain.DailyChallenge),
		challengeAnswers: make(map[string]domain.ChallengeAnswer),
		rnd:              rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// classrooms

func (s *Store) GetOrCreateClassroom(_ context.Context, c domain.Classroom) (domain.Classroom, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.classrooms {
		if existing.JoinCode == c.JoinCode {
			return existing, nil
		}
	}
	s.classrooms[c.ID] = c
	return c, nil
}

func (s *Store) Classroom(_ context.Context, id string) (domain.Classroom, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.classrooms[id]
	if !ok {
		return domain.Classroom{}, domain.ErrClassroomNotFound
	}
	return c, nil
}

func (s *Store) ClassroomByCode(_ context.Context, code string) (domain.Classroom, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, c := range s.classrooms {
		if c.JoinCode == code {
			return c, nil
		}
	}
	return domain.Classroom{}, domain.ErrClassroomNotFound
}

// students

func (s *Store) GetOrCreateStudent(_ context.Context, st domain.Student) (domain.Student, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.studentByNameLocked(st.ClassroomID, st.Name); ok {
		return existing, nil
	}
	if _, ok := s.classrooms[st.ClassroomID]; !ok {
		return domain.Student{}, domain.ErrClassroomNotFound
	}
	s.students[st.ID] = st
	return st, nil
}

func (s *Store) InsertStudent(_ context.Context, st domain.Student) (domain.Student, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.studentByNameLocked(st.ClassroomID, st.Name); ok {
		return domain.Student{}, domain.ErrStudentExists
	}
	if _, ok := s.classrooms[st.ClassroomID]; !ok {
		return domain.Student{}, domain.ErrClassroomNotFound
	}
	s.students[st.ID] = st
	return st, nil
}

func (s *Store) studentByNameLocked(classroomID, name string) (domain.Student, bool) {
	for _, st := range s.students {
		if st.ClassroomID == classroomID && st.Name == name {
			return st, true
		}
	}
	return domain.Student{}, false
}

func (s *Store) Student(_ context.Context, id string) (domain.Student, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, ok := s.students[id]
	if !ok {
		return domain.Student{}, domain.ErrStudentNotFound
	}
	return st, nil
}

func (s *Store) StudentsByClassroom(_ context.Context, classroomID string) ([]domain.Student, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Student, 0)
	for _, st := range s.students {
		if st.ClassroomID == classroomID {
			out = append(out, st)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Level != out[j].Level {
			return out[i].Level > out[j].Level
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}

func (s *Store) UpdateAvatar(_ context.Context, id string, avatar domain.Avatar) (domain.Student, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.students[id]
	if !ok {
		return domain.Student{}, domain.ErrStudentNotFound
	}
	st.Avatar = avatar
	s.students[id] = st
	return st, nil
}

func (s *Store) SaveDailyState(_ context.Context, id string, prev, next domain.DailyState) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.students[id]
	if !ok {
		return false, domain.ErrStudentNotFound
	}
	if st.DailyState != prev {
		return false, nil
	}
	st.DailyState = next
	s.students[id] = st
	return true, nil
}

func (s *Store) DeleteStudent(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.students[id]; !ok {
		return domain.ErrStudentNotFound
	}
	delete(s.students, id)
	for sid, ps := range s.sessions {
		if ps.StudentID == id {
			delete(s.sessions, sid)
			delete(s.answers, sid)
		}
	}
	for key, ans := range s.challengeAnswers {
		if ans.StudentID == id {
			delete(s.challengeAnswers, key)
		}
	}
	return nil
}

// catalog

func (s *Store) Subjects(_ context.Context) ([]domain.Subject, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Subject, 0, len(s.subjects))
	for _, subj := range s.subjects {
		out = append(out, subj)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *Store) Subject(_ context.Context, id string) (domain.Subject, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	subj, ok := s.subjects[id]
	if !ok {
		return domain.Subject{}, domain.ErrSubjectNotFound
	}
	return subj, nil
}

func (s *Store) SubjectBySlug(_ context.Context, slug string) (domain.Subject, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, subj := range s.subjects {
		if subj.Slug == slug {
			return subj, nil
		}
	}
	return domain.Subject{}, domain.ErrSubjectNotFound
}

func (s *Store) UpsertSubject(_ context.Context, subj domain.Subject) (domain.Subject, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, existing := range s.subjects {
		if existing.Slug == subj.Slug {
			existing.Name = subj.Name
			existing.Emoji = subj.Emoji
			s.subjects[id] = existing
			return existing, nil
		}
	}
	s.subjects[subj.ID] = subj
	return subj, nil
}

func (s *Store) Question(_ context.Context, id string) (domain.Question, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	q, ok := s.questions[id]
	if !ok {
		return domain.Question{}, domain.ErrQuestionNotFound
	}
	return q, nil
}

func (s *Store) QuestionsBySubject(_ context.Context, subjectID string) ([]domain.Question, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Question, 0)
	for _, q := range s.questions {
		if q.SubjectID == subjectID {
			out = append(out, q)
		}
	}
	sortNewestFirst(out)
	return out, nil
}

func (s *Store) SampleQuestions(_ context.Context, classroomID string, limit int) ([]domain.Question, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Question, 0)
	for _, q := range s.questions {
		if q.VisibleTo(classroomID) {
			out = append(out, q)
		}
	}
	sortNewestFirst(out)
	s.rnd.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *Store) InsertQuestion(_ context.Context, q domain.Question) (domain.Question, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.subjects[q.SubjectID]; !ok {
		return domain.Question{}, domain.ErrSubjectNotFound
	}
	s.questions[q.ID] = q
	return q, nil
}

func (s *Store) DeleteQuestion(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.questions[id]; !ok {
		return domain.ErrQuestionNotFound
	}
	delete(s.questions, id)
	return nil
}

func sortNewestFirst(qs []domain.Question) {
	sort.Slice(qs, func(i, j int) bool {
		if !qs[i].CreatedAt.Equal(qs[j].CreatedAt) {
			return qs[i].CreatedAt.After(qs[j].CreatedAt)
		}
		return qs[i].ID < qs[j].ID
	})
}

// play sessions

func (s *Store) StartPlaySession(_ context.Context, ps domain.PlaySession, today domain.Day, limit int) (domain.PlaySession, domain.DailyState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.students[ps.StudentID]
	if !ok {
		return domain.PlaySession{}, domain.DailyState{}, domain.ErrStudentNotFound
	}
	if st.LastPlayedDate != today {
		st.GamesPlayedToday = 0
		st.LastPlayedDate = today
	}
	if st.GamesPlayedToday >= limit {
		return domain.PlaySession{}, domain.DailyState{}, domain.ErrDailyLimitReached
	}
	st.GamesPlayedToday++
	s.students[st.ID] = st

	ps.Score = 0
	ps.CompletedAt = nil
	s.sessions[ps.ID] = ps
	return ps, st.DailyState, nil
}

func (s *Store) RecordAnswer(_ context.Context, rec domain.AnswerRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[rec.SessionID]; !ok {
		return domain.ErrPlaySessionNotFound
	}
	s.answers[rec.SessionID] = append(s.answers[rec.SessionID], rec)
	return nil
}

// Answers returns the answer log of a session.
func (s *Store) Answers(sessionID string) []domain.AnswerRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.AnswerRecord(nil), s.answers[sessionID]...)
}

func (s *Store) CompletePlaySession(_ context.Context, sessionID string, score int, at time.Time) (domain.PlaySession, domain.Student, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ps, ok := s.sessions[sessionID]
	if !ok {
		return domain.PlaySession{}, domain.Student{}, domain.ErrPlaySessionNotFound
	}
	if ps.Completed() {
		return domain.PlaySession{}, domain.Student{}, domain.ErrSessionCompleted
	}
	st, ok := s.students[ps.StudentID]
	if !ok {
		return domain.PlaySession{}, domain.Student{}, domain.ErrStudentNotFound
	}

	completedAt := at
	ps.Score = score
	ps.CompletedAt = &completedAt
	s.sessions[ps.ID] = ps

	st.AddPoints(score)
	s.students[st.ID] = st
	return ps, st, nil
}

func (s *Store) PlaySession(_ context.Context, id string) (domain.PlaySession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ps, ok := s.sessions[id]
	if !ok {
		return domain.PlaySession{}, domain.ErrPlaySessionNotFound
	}
	return ps, nil
}

func (s *Store) PlaySessionsByStudent(_ context.Context, studentID string) ([]domain.PlaySession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.PlaySession, 0)
	for _, ps := range s.sessions {
		if ps.StudentID == studentID {
			out = append(out, ps)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PlayedAt.After(out[j].PlayedAt) })
	return out, nil
}

func (s *Store) WeeklyScores(_ context.Context, classroomID string, since time.Time) (map[string]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]int)
	for _, ps := range s.sessions {
		if !ps.Completed() || ps.PlayedAt.Before(since) {
			continue
		}
		st, ok := s.students[ps.StudentID]
		if !ok || st.ClassroomID != classroomID {
			continue
		}
		out[st.ID] += ps.Score
	}
	return out, nil
}

// daily challenges

func (s *Store) DailyChallenge(_ context.Context, classroomID string, day domain.Day) (domain.DailyChallenge, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if c, ok := s.challengeForDayLocked(classroomID, day); ok {
		return c, nil
	}
	return domain.DailyChallenge{}, domain.ErrChallengeNotFound
}

func (s *Store) CreateDailyChallenge(_ context.Context, c domain.DailyChallenge) (domain.DailyChallenge, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.challengeForDayLocked(c.ClassroomID, c.Date); ok {
		return existing, nil
	}
	if _, ok := s.questions[c.QuestionID]; !ok {
		return domain.DailyChallenge{}, domain.ErrQuestionNotFound
	}
	s.challenges[c.ID] = c
	return c, nil
}

func (s *Store) challengeForDayLocked(classroomID string, day domain.Day) (domain.DailyChallenge, bool) {
	for _, c := range s.challenges {
		if c.ClassroomID == classroomID && c.Date == day {
			return c, true
		}
	}
	return domain.DailyChallenge{}, false
}

func (s *Store) ChallengeByID(_ context.Context, id string) (domain.DailyChallenge, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.challenges[id]
	if !ok {
		return domain.DailyChallenge{}, domain.ErrChallengeNotFound
	}
	return c, nil
}

func (s *Store) ChallengeAnswer(_ context.Context, challengeID, studentID string) (domain.ChallengeAnswer, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ans, ok := s.challengeAnswers[answerKey(challengeID, studentID)]
	return ans, ok, nil
}

func (s *Store) AnswerChallenge(_ context.Context, ans domain.ChallengeAnswer, points int) (domain.ChallengeAnswer, domain.Student, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := answerKey(ans.ChallengeID, ans.StudentID)
	if _, ok := s.challengeAnswers[key]; ok {
		return domain.ChallengeAnswer{}, domain.Student{}, domain.ErrChallengeAnswered
	}
	if _, ok := s.challenges[ans.ChallengeID]; !ok {
		return domain.ChallengeAnswer{}, domain.Student{}, domain.ErrChallengeNotFound
	}
	st, ok := s.students[ans.StudentID]
	if !ok {
		return domain.ChallengeAnswer{}, domain.Student{}, domain.ErrStudentNotFound
	}
	s.challengeAnswers[key] = ans
	if points > 0 {
		st.AddPoints(points)
		s.students[st.ID] = st
	}
	return ans, st, nil
}

func answerKey(challengeID, studentID string) string {
	return challengeID + "/" + studentID
}
