package medhistory

import (
	"context"

	"github.com/carebridge/healthcare-portal/internal/session"
)

// Service gates the repository by role: patients touch only their own
// history, doctors read and write any patient's record, admins read.
type Service struct {
	repo *Repository
}

func NewService(repo *Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) canRead(sess session.Context, patientID string) bool {
	if sess.IsDoctor() || sess.IsAdmin() {
		return true
	}
	return sess.IsPatient() && sess.UserID == patientID
}

func (s *Service) canWrite(sess session.Context, patientID string) bool {
	if sess.IsDoctor() {
		return true
	}
	return sess.IsPatient() && sess.UserID == patientID
}

func (s *Service) Get(ctx context.Context, sess session.Context, patientID string) (*History, error) {
	if !s.canRead(sess, patientID) {
		return nil, session.ErrUnauthorized
	}
	return s.repo.Get(ctx, patientID)
}

func (s *Service) Save(ctx context.Context, sess session.Context, patientID string, h *History) error {
	if !s.canWrite(sess, patientID) {
		return session.ErrUnauthorized
	}
	return s.repo.Save(ctx, patientID, h)
}

func (s *Service) AddItem(ctx context.Context, sess session.Context, patientID, section string, item Entry) (Entry, error) {
	if !s.canWrite(sess, patientID) {
		return nil, session.ErrUnauthorized
	}
	return s.repo.AddItem(ctx, patientID, section, item)
}

func (s *Service) RemoveItem(ctx context.Context, sess session.Context, patientID, section, itemID string) error {
	if !s.canWrite(sess, patientID) {
		return session.ErrUnauthorized
	}
	return s.repo.RemoveItem(ctx, patientID, section, itemID)
}

func (s *Service) All(ctx context.Context, sess session.Context) ([]PatientHistory, error) {
	if !sess.IsDoctor() && !sess.IsAdmin() {
		return nil, session.ErrUnauthorized
	}
	return s.repo.All(ctx)
}

func (s *Service) FindByCondition(ctx context.Context, sess session.Context, name string) ([]PatientHistory, error) {
	if !sess.IsDoctor() && !sess.IsAdmin() {
		return nil, session.ErrUnauthorized
	}
	return s.repo.FindByCondition(ctx, name)
}

func (s *Service) FindByMedication(ctx context.Context, sess session.Context, name string) ([]PatientHistory, error) {
	if !sess.IsDoctor() && !sess.IsAdmin() {
		return nil, session.ErrUnauthorized
	}
	return s.repo.FindByMedication(ctx, name)
}
