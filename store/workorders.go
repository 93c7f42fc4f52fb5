package store

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/voltasol/osboard/domain"
	"github.com/voltasol/osboard/spool"
	"go.uber.org/zap"
)

var nonDigits = regexp.MustCompile(`\D`)

// nextWorkOrderID derives the next sequential id from the highest numeric
// suffix present in the collection. The 7th order is "OS0007". Caller holds
// the lock.
func (s *Store) nextWorkOrderID() string {
	max := 0
	for i := range s.workOrders {
		n, err := strconv.Atoi(nonDigits.ReplaceAllString(s.workOrders[i].ID, ""))
		if err != nil {
			continue
		}
		if n > max {
			max = n
		}
	}
	return fmt.Sprintf("OS%04d", max+1)
}

// CreateWorkOrder validates and creates a work order. The id comes from the
// monotonic counter, the title is derived from id and activity, and the
// supervisor is taken from the technician's current supervisor. The new
// order is prepended optimistically before the POST; its supervisor and
// technician are notified either way.
func (s *Store) CreateWorkOrder(ctx context.Context, in domain.WorkOrderInput) (Result[domain.WorkOrder], error) {
	if err := s.valid.Struct(in); err != nil {
		return Result[domain.WorkOrder]{}, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}
	status := in.Status
	if status == "" {
		status = domain.StatusPending
	}
	if !status.Valid() || !in.Priority.Valid() {
		return Result[domain.WorkOrder]{}, fmt.Errorf("%w: unknown status or priority", domain.ErrInvalidInput)
	}
	if !domain.ValidActivity(in.Activity) {
		return Result[domain.WorkOrder]{}, fmt.Errorf("%w: unknown activity %q", domain.ErrInvalidInput, in.Activity)
	}

	s.mu.Lock()
	pi := indexOfPlant(s.plants, in.PlantID)
	if pi < 0 {
		s.mu.Unlock()
		return Result[domain.WorkOrder]{}, domain.ErrPlantNotFound
	}
	ti := indexOfUser(s.users, in.TechnicianID)
	if ti < 0 {
		s.mu.Unlock()
		return Result[domain.WorkOrder]{}, fmt.Errorf("%w: technician %s", domain.ErrUserNotFound, in.TechnicianID)
	}
	if s.users[ti].Role != domain.RoleTechnician {
		s.mu.Unlock()
		return Result[domain.WorkOrder]{}, fmt.Errorf("%w: %s is not a technician", domain.ErrInvalidInput, in.TechnicianID)
	}
	if err := checkAssets(in.Assets, s.plants[pi].Assets); err != nil {
		s.mu.Unlock()
		return Result[domain.WorkOrder]{}, err
	}
	supervisorID := s.users[ti].SupervisorID

	now := time.Now().UTC()
	id := s.nextWorkOrderID()
	order := domain.WorkOrder{
		ID:                 id,
		Title:              domain.ComposeTitle(id, in.Activity),
		Description:        in.Description,
		Status:             status,
		Priority:           in.Priority,
		PlantID:            in.PlantID,
		TechnicianID:       in.TechnicianID,
		SupervisorID:       supervisorID,
		StartDate:          in.StartDate,
		EndDate:            in.EndDate,
		CreatedAt:          now,
		UpdatedAt:          now,
		Activity:           in.Activity,
		Assets:             append([]string{}, in.Assets...),
		AttachmentsEnabled: in.AttachmentsEnabled,
		ImageAttachments:   []domain.ImageAttachment{},
		Logs:               []domain.OSLog{},
	}
	s.workOrders = append([]domain.WorkOrder{order}, s.workOrders...)
	s.saveWorkOrders()
	s.mu.Unlock()

	outcome := AppliedConfirmed
	saved, err := s.gw.CreateWorkOrder(ctx, order)
	if err != nil {
		s.logger.Warn("create work order not confirmed by server, keeping local state",
			zap.String("os_id", order.ID),
			zap.Error(err))
		outcome = AppliedLocalOnly
	} else {
		s.mu.Lock()
		if idx := indexOfWorkOrder(s.workOrders, order.ID); idx >= 0 {
			s.workOrders[idx] = saved
			s.saveWorkOrders()
		}
		s.mu.Unlock()
		order = saved
	}
	s.metrics.ObserveMutation("workorder", string(outcome))

	if order.SupervisorID != "" {
		s.notify(order.SupervisorID, fmt.Sprintf("Nova OS %q criada.", order.Title))
	}
	if order.TechnicianID != "" {
		s.notify(order.TechnicianID, fmt.Sprintf("Você foi atribuído à nova OS %q.", order.Title))
	}

	return Result[domain.WorkOrder]{Applied: outcome, Value: copyWorkOrder(order)}, nil
}

// UpdateWorkOrder validates and saves work-order changes. Title and
// UpdatedAt are always recomputed, and the supervisor is re-derived from
// the technician's current supervisor: neither is independently settable.
// Assets stay constrained to the plant's catalog on every save.
func (s *Store) UpdateWorkOrder(ctx context.Context, order domain.WorkOrder) (Result[domain.WorkOrder], error) {
	if !order.Status.Valid() || !order.Priority.Valid() {
		return Result[domain.WorkOrder]{}, fmt.Errorf("%w: unknown status or priority", domain.ErrInvalidInput)
	}
	if !domain.ValidActivity(order.Activity) {
		return Result[domain.WorkOrder]{}, fmt.Errorf("%w: unknown activity %q", domain.ErrInvalidInput, order.Activity)
	}

	s.mu.Lock()
	idx := indexOfWorkOrder(s.workOrders, order.ID)
	if idx < 0 {
		s.mu.Unlock()
		return Result[domain.WorkOrder]{}, domain.ErrWorkOrderNotFound
	}
	pi := indexOfPlant(s.plants, order.PlantID)
	if pi < 0 {
		s.mu.Unlock()
		return Result[domain.WorkOrder]{}, domain.ErrPlantNotFound
	}
	ti := indexOfUser(s.users, order.TechnicianID)
	if ti < 0 {
		s.mu.Unlock()
		return Result[domain.WorkOrder]{}, fmt.Errorf("%w: technician %s", domain.ErrUserNotFound, order.TechnicianID)
	}
	if s.users[ti].Role != domain.RoleTechnician {
		s.mu.Unlock()
		return Result[domain.WorkOrder]{}, fmt.Errorf("%w: %s is not a technician", domain.ErrInvalidInput, order.TechnicianID)
	}
	if err := checkAssets(order.Assets, s.plants[pi].Assets); err != nil {
		s.mu.Unlock()
		return Result[domain.WorkOrder]{}, err
	}
	order.SupervisorID = s.users[ti].SupervisorID
	order.Title = domain.ComposeTitle(order.ID, order.Activity)
	order.CreatedAt = s.workOrders[idx].CreatedAt
	order.UpdatedAt = time.Now().UTC()
	s.workOrders[idx] = order
	s.saveWorkOrders()
	s.mu.Unlock()

	outcome := AppliedConfirmed
	saved, err := s.gw.UpdateWorkOrder(ctx, order)
	if err != nil {
		s.logger.Warn("update work order not confirmed by server, keeping local state",
			zap.String("os_id", order.ID),
			zap.Error(err))
		outcome = AppliedLocalOnly
	} else {
		s.mu.Lock()
		if idx := indexOfWorkOrder(s.workOrders, saved.ID); idx >= 0 {
			s.workOrders[idx] = saved
			s.saveWorkOrders()
		}
		s.mu.Unlock()
		order = saved
	}
	s.metrics.ObserveMutation("workorder", string(outcome))

	return Result[domain.WorkOrder]{Applied: outcome, Value: copyWorkOrder(order)}, nil
}

// AddLog prepends an immutable history entry to a work order and notifies
// the supervisor; a status change carried by the log produces an extra
// notification. The change is persisted through the regular work-order PUT.
func (s *Store) AddLog(ctx context.Context, osID string, in domain.LogInput) (Result[domain.WorkOrder], error) {
	if err := s.valid.Struct(in); err != nil {
		return Result[domain.WorkOrder]{}, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}
	if in.StatusChange != nil && !in.StatusChange.To.Valid() {
		return Result[domain.WorkOrder]{}, fmt.Errorf("%w: unknown status %q", domain.ErrInvalidInput, in.StatusChange.To)
	}

	s.mu.Lock()
	idx := indexOfWorkOrder(s.workOrders, osID)
	if idx < 0 {
		s.mu.Unlock()
		return Result[domain.WorkOrder]{}, domain.ErrWorkOrderNotFound
	}

	entry := domain.OSLog{
		ID:        uuid.NewString(),
		Timestamp: time.Now().UTC(),
		AuthorID:  in.AuthorID,
		Comment:   in.Comment,
	}
	if in.StatusChange != nil {
		sc := *in.StatusChange
		entry.StatusChange = &sc
	}
	order := &s.workOrders[idx]
	order.Logs = append([]domain.OSLog{entry}, order.Logs...)
	if entry.StatusChange != nil {
		order.Status = entry.StatusChange.To
	}
	order.UpdatedAt = entry.Timestamp

	authorName := "Usuário"
	if ai := indexOfUser(s.users, in.AuthorID); ai >= 0 {
		authorName = s.users[ai].Name
	}
	updated := copyWorkOrder(*order)
	s.saveWorkOrders()
	s.mu.Unlock()

	if updated.SupervisorID != "" {
		s.notify(updated.SupervisorID, fmt.Sprintf("%s adicionou um comentário à OS %q.", authorName, updated.Title))
		if entry.StatusChange != nil {
			s.notify(updated.SupervisorID, fmt.Sprintf("O status da OS %q foi alterado para %s.", updated.Title, entry.StatusChange.To))
		}
	}

	outcome := AppliedConfirmed
	saved, err := s.gw.UpdateWorkOrder(ctx, updated)
	if err != nil {
		s.logger.Warn("work-order log not confirmed by server, keeping local state",
			zap.String("os_id", osID),
			zap.Error(err))
		outcome = AppliedLocalOnly
	} else {
		s.mu.Lock()
		if idx := indexOfWorkOrder(s.workOrders, saved.ID); idx >= 0 {
			s.workOrders[idx] = saved
			s.saveWorkOrders()
		}
		s.mu.Unlock()
		updated = saved
	}
	s.metrics.ObserveMutation("workorder", string(outcome))

	return Result[domain.WorkOrder]{Applied: outcome, Value: copyWorkOrder(updated)}, nil
}

// AddAttachments uploads image payloads for a work order. When the upload
// cannot be completed the payloads are spooled locally under their content
// address and recorded as local attachments, so the user's edit survives.
func (s *Store) AddAttachments(ctx context.Context, osID string, uploads []domain.AttachmentUpload) (Result[[]domain.ImageAttachment], error) {
	if len(uploads) == 0 {
		return Result[[]domain.ImageAttachment]{}, fmt.Errorf("%w: no payloads", domain.ErrInvalidInput)
	}
	for _, up := range uploads {
		if up.Filename == "" || len(up.Data) == 0 {
			return Result[[]domain.ImageAttachment]{}, fmt.Errorf("%w: attachment needs a filename and payload", domain.ErrInvalidInput)
		}
	}

	s.mu.Lock()
	idx := indexOfWorkOrder(s.workOrders, osID)
	if idx < 0 {
		s.mu.Unlock()
		return Result[[]domain.ImageAttachment]{}, domain.ErrWorkOrderNotFound
	}
	if !s.workOrders[idx].AttachmentsEnabled {
		s.mu.Unlock()
		return Result[[]domain.ImageAttachment]{}, fmt.Errorf("%w: attachments disabled for %s", domain.ErrInvalidInput, osID)
	}
	s.mu.Unlock()

	var attachments []domain.ImageAttachment
	outcome := AppliedConfirmed

	attachments, err := s.gw.UploadAttachments(ctx, osID, uploads)
	if err != nil {
		s.logger.Warn("attachment upload failed, spooling payloads locally",
			zap.String("os_id", osID),
			zap.Int("count", len(uploads)),
			zap.Error(err))
		outcome = AppliedLocalOnly
		now := time.Now().UTC()
		attachments = make([]domain.ImageAttachment, 0, len(uploads))
		for _, up := range uploads {
			url := "spool://" + spool.Address(up.Data)
			if s.spool != nil {
				if spooled, err := s.spool.Put(up.Data); err == nil {
					url = spooled
				} else {
					s.logger.Warn("failed to spool attachment payload", zap.Error(err))
				}
			}
			attachments = append(attachments, domain.ImageAttachment{
				ID:         uuid.NewString(),
				URL:        url,
				Caption:    up.Caption,
				UploadedBy: up.UploadedBy,
				UploadedAt: now,
			})
		}
	}

	s.mu.Lock()
	if idx := indexOfWorkOrder(s.workOrders, osID); idx >= 0 {
		order := &s.workOrders[idx]
		order.ImageAttachments = append(append([]domain.ImageAttachment{}, attachments...), order.ImageAttachments...)
		order.UpdatedAt = time.Now().UTC()
		s.saveWorkOrders()
	}
	s.mu.Unlock()
	s.metrics.ObserveMutation("attachment", string(outcome))

	return Result[[]domain.ImageAttachment]{Applied: outcome, Value: attachments}, nil
}

// UpdateAttachmentCaption edits a caption in place. There is no caption
// endpoint; the edit rides on the regular work-order PUT.
func (s *Store) UpdateAttachmentCaption(ctx context.Context, osID, attachmentID, caption string) (Result[domain.WorkOrder], error) {
	s.mu.Lock()
	idx := indexOfWorkOrder(s.workOrders, osID)
	if idx < 0 {
		s.mu.Unlock()
		return Result[domain.WorkOrder]{}, domain.ErrWorkOrderNotFound
	}
	order := &s.workOrders[idx]
	found := false
	for i := range order.ImageAttachments {
		if order.ImageAttachments[i].ID == attachmentID {
			order.ImageAttachments[i].Caption = caption
			found = true
			break
		}
	}
	if !found {
		s.mu.Unlock()
		return Result[domain.WorkOrder]{}, domain.ErrAttachmentNotFound
	}
	order.UpdatedAt = time.Now().UTC()
	updated := copyWorkOrder(*order)
	s.saveWorkOrders()
	s.mu.Unlock()

	outcome := AppliedConfirmed
	saved, err := s.gw.UpdateWorkOrder(ctx, updated)
	if err != nil {
		s.logger.Warn("caption edit not confirmed by server, keeping local state",
			zap.String("os_id", osID),
			zap.Error(err))
		outcome = AppliedLocalOnly
	} else {
		s.mu.Lock()
		if idx := indexOfWorkOrder(s.workOrders, saved.ID); idx >= 0 {
			s.workOrders[idx] = saved
			s.saveWorkOrders()
		}
		s.mu.Unlock()
		updated = saved
	}
	s.metrics.ObserveMutation("attachment", string(outcome))

	return Result[domain.WorkOrder]{Applied: outcome, Value: copyWorkOrder(updated)}, nil
}

// DeleteAttachment removes an attachment from a work order. Spooled
// payloads are deleted locally; uploaded ones are deleted through the
// gateway.
func (s *Store) DeleteAttachment(ctx context.Context, osID, attachmentID string) (Result[string], error) {
	s.mu.Lock()
	idx := indexOfWorkOrder(s.workOrders, osID)
	if idx < 0 {
		s.mu.Unlock()
		return Result[string]{}, domain.ErrWorkOrderNotFound
	}
	order := &s.workOrders[idx]
	var url string
	found := false
	for i := range order.ImageAttachments {
		if order.ImageAttachments[i].ID == attachmentID {
			url = order.ImageAttachments[i].URL
			order.ImageAttachments = append(order.ImageAttachments[:i], order.ImageAttachments[i+1:]...)
			found = true
			break
		}
	}
	if !found {
		s.mu.Unlock()
		return Result[string]{}, domain.ErrAttachmentNotFound
	}
	order.UpdatedAt = time.Now().UTC()
	s.saveWorkOrders()
	s.mu.Unlock()

	outcome := AppliedConfirmed
	if addr, ok := spoolAddress(url); ok {
		if s.spool != nil {
			if err := s.spool.Delete(addr); err != nil {
				s.logger.Warn("failed to delete spooled payload", zap.Error(err))
			}
		}
	} else if err := s.gw.DeleteAttachment(ctx, osID, attachmentID); err != nil {
		s.logger.Warn("attachment delete not confirmed by server, keeping local state",
			zap.String("os_id", osID),
			zap.String("attachment_id", attachmentID),
			zap.Error(err))
		outcome = AppliedLocalOnly
	}
	s.metrics.ObserveMutation("attachment", string(outcome))

	return Result[string]{Applied: outcome, Value: attachmentID}, nil
}

func spoolAddress(url string) (string, bool) {
	const prefix = "spool://"
	if len(url) > len(prefix) && url[:len(prefix)] == prefix {
		return url[len(prefix):], true
	}
	return "", false
}
