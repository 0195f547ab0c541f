package models

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mmdatafocus/ledger_backend/config"
	"github.com/mmdatafocus/ledger_backend/utils"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const UnknownPartyName = "Unknown"

type Party struct {
	ID            string    `gorm:"primaryKey;size:36" json:"id"`
	Name          string    `gorm:"size:191;not null;index" json:"name"`
	Phone         string    `gorm:"size:50;index" json:"phone"`
	Email         string    `gorm:"size:191" json:"email"`
	Address       string    `gorm:"type:text" json:"address"`
	Notes         string    `gorm:"type:text" json:"notes"`
	Image         string    `gorm:"size:512" json:"image"`
	IsActive      *bool     `gorm:"not null;default:true" json:"is_active"`
	CreatedBy     string    `gorm:"size:36;not null;index" json:"created_by"`
	Creator       *User     `gorm:"foreignKey:CreatedBy" json:"-"`
	ResolutionKey *string   `gorm:"size:255;uniqueIndex" json:"-"` // implicit parties only
	CreatedAt     time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// PartyView is the list shape: created_by carries the creator's email.
type PartyView struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Phone     string    `json:"phone"`
	Email     string    `json:"email"`
	Address   string    `json:"address"`
	Notes     string    `json:"notes"`
	Image     string    `json:"image"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	CreatedBy string    `json:"created_by"`
	CreatorId string    `json:"creator_id"`
}

type NewParty struct {
	Name      string `json:"name" form:"name" validate:"required,max=191"`
	Phone     string `json:"phone" form:"phone" validate:"max=50"`
	Email     string `json:"email" form:"email" validate:"omitempty,email,max=191"`
	Address   string `json:"address" form:"address"`
	Notes     string `json:"notes" form:"notes"`
	CreatedBy string `json:"created_by" form:"createdBy"`
}

// PartyPatch holds only the fields present in an update request.
type PartyPatch struct {
	Name     *string `json:"name"`
	Phone    *string `json:"phone"`
	Email    *string `json:"email"`
	Address  *string `json:"address"`
	Notes    *string `json:"notes"`
	IsActive *bool   `json:"is_active"`
}

func (p *Party) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return nil
}

func NewPartyView(p *Party, creatorEmail string) *PartyView {
	if creatorEmail == "" {
		creatorEmail = "system"
	}
	return &PartyView{
		ID:        p.ID,
		Name:      p.Name,
		Phone:     p.Phone,
		Email:     p.Email,
		Address:   p.Address,
		Notes:     p.Notes,
		Image:     p.Image,
		IsActive:  utils.DereferencePtr(p.IsActive, true),
		CreatedAt: p.CreatedAt,
		CreatedBy: creatorEmail,
		CreatorId: p.CreatedBy,
	}
}

func validatePhone(phone string) error {
	region := config.PhoneRegion()
	if region == "" || phone == "" {
		return nil
	}
	if err := utils.ValidatePhoneNumber(phone, region); err != nil {
		return utils.NewValidationError("invalid phone number: " + phone)
	}
	return nil
}

func ListParties(ctx context.Context) ([]*Party, error) {
	var results []*Party
	if err := config.GetDB().WithContext(ctx).Order("created_at desc").Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func GetParty(ctx context.Context, id string) (*Party, error) {
	return utils.FetchModel[Party](ctx, id)
}

func CreateParty(ctx context.Context, input *NewParty, image string) (*Party, error) {
	input.Name = strings.TrimSpace(input.Name)
	input.Phone = strings.TrimSpace(input.Phone)
	if err := utils.ValidateStruct(input); err != nil {
		return nil, err
	}
	if err := validatePhone(input.Phone); err != nil {
		return nil, err
	}

	creatorId := strings.TrimSpace(input.CreatedBy)
	if creatorId != "" {
		if err := utils.ValidateResourceId[User](ctx, creatorId); err != nil {
			if errors.Is(err, utils.ErrorRecordNotFound) {
				return nil, utils.NewValidationError("creator not found")
			}
			return nil, err
		}
	} else {
		actor, err := ResolveActor(ctx)
		if err != nil {
			return nil, err
		}
		creatorId = actor.ID
	}

	party := Party{
		Name:      input.Name,
		Phone:     input.Phone,
		Email:     strings.TrimSpace(input.Email),
		Address:   input.Address,
		Notes:     input.Notes,
		Image:     image,
		IsActive:  utils.NewTrue(),
		CreatedBy: creatorId,
	}

	db := config.GetDB()
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&party).Error; err != nil {
			return err
		}
		return recordNotification(tx, NotificationActionCreate, EntityTypeParty, party.ID, creatorId,
			fmt.Sprintf("Party %s created", party.Name))
	})
	if err != nil {
		return nil, err
	}
	publishLedgerEvent(ctx, NotificationActionCreate, EntityTypeParty, party.ID, creatorId, &party)
	return &party, nil
}

// UpdateParty overwrites only the fields present in input; image is replaced
// only when a new one was uploaded.
func UpdateParty(ctx context.Context, id string, input *PartyPatch, image string) (*Party, error) {
	party, err := GetParty(ctx, id)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, utils.NewValidationError("name cannot be empty")
		}
		updates["name"] = name
	}
	if input.Phone != nil {
		phone := strings.TrimSpace(*input.Phone)
		if err := validatePhone(phone); err != nil {
			return nil, err
		}
		updates["phone"] = phone
	}
	if input.Email != nil {
		email := strings.TrimSpace(*input.Email)
		if email != "" && !utils.IsValidEmail(email) {
			return nil, utils.NewValidationError("invalid email address")
		}
		updates["email"] = email
	}
	if input.Address != nil {
		updates["address"] = *input.Address
	}
	if input.Notes != nil {
		updates["notes"] = *input.Notes
	}
	if input.IsActive != nil {
		updates["is_active"] = *input.IsActive
	}
	if image != "" {
		updates["image"] = image
	}
	if len(updates) == 0 {
		return party, nil
	}
	if partyIdentityChanged(party, updates) {
		updates["resolution_key"] = nil
	}

	actorId := ActorIdOrEmpty(ctx)
	db := config.GetDB()
	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(party).Updates(updates).Error; err != nil {
			return err
		}
		return recordNotification(tx, NotificationActionUpdate, EntityTypeParty, party.ID, actorId,
			fmt.Sprintf("Party %s updated", party.Name))
	})
	if err != nil {
		return nil, err
	}
	return publishAfterCommit(func() (*Party, error) {
		return GetParty(ctx, id)
	}, updates, func(payload any) {
		publishLedgerEvent(ctx, NotificationActionUpdate, EntityTypeParty, id, actorId, payload)
	})
}

func partyIdentityChanged(party *Party, updates map[string]interface{}) bool {
	if name, ok := updates["name"]; ok && name != party.Name {
		return true
	}
	if phone, ok := updates["phone"]; ok && phone != party.Phone {
		return true
	}
	return false
}

// DeleteParty refuses to orphan transactions; the caller must delete or
// re-assign them first.
func DeleteParty(ctx context.Context, id string) error {
	party, err := GetParty(ctx, id)
	if err != nil {
		return err
	}
	count, err := utils.ResourceCountWhere[Transaction](ctx, "party_id = ?", id)
	if err != nil {
		return err
	}
	if count > 0 {
		return utils.NewValidationError(fmt.Sprintf("party has %d transaction(s) and cannot be deleted", count))
	}

	actorId := ActorIdOrEmpty(ctx)
	db := config.GetDB()
	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(party).Error; err != nil {
			return err
		}
		return recordNotification(tx, NotificationActionDelete, EntityTypeParty, party.ID, actorId,
			fmt.Sprintf("Party %s deleted", party.Name))
	})
	if err != nil {
		return err
	}
	publishLedgerEvent(ctx, NotificationActionDelete, EntityTypeParty, party.ID, actorId, party)
	return nil
}

// PartyHint is the party information embedded in a transaction payload.
type PartyHint struct {
	Name    string
	Phone   string
	Email   string
	Address string
	Notes   string
}

func (h PartyHint) normalized() PartyHint {
	h.Name = strings.TrimSpace(h.Name)
	h.Phone = strings.TrimSpace(h.Phone)
	h.Email = strings.TrimSpace(h.Email)
	return h
}

func (h PartyHint) empty() bool {
	return h.Name == "" && h.Phone == ""
}

// resolutionKey identifies an implicitly created party. UpdateParty clears it
// once the name or phone no longer matches.
func (h PartyHint) resolutionKey() string {
	return h.Name + "|" + h.Phone
}

// matches reports an exact name OR exact phone match, the same rule as
// matchConditions.
func (h PartyHint) matches(p *Party) bool {
	return (h.Name != "" && p.Name == h.Name) || (h.Phone != "" && p.Phone == h.Phone)
}

// lockKeys are the redis keys that serialize concurrent resolutions which
// could match each other (same name or same phone). Sorted to avoid deadlock.
func (h PartyHint) lockKeys() []string {
	var keys []string
	if h.Name != "" {
		keys = append(keys, "lock:party:name:"+strings.ToLower(h.Name))
	}
	if h.Phone != "" {
		keys = append(keys, "lock:party:phone:"+h.Phone)
	}
	sort.Strings(keys)
	return keys
}

// matchConditions only includes the non-empty fields; an empty name must not
// match every party.
func (h PartyHint) matchConditions() (string, []interface{}) {
	var conds []string
	var args []interface{}
	if h.Name != "" {
		conds = append(conds, "name = ?")
		args = append(args, h.Name)
	}
	if h.Phone != "" {
		conds = append(conds, "phone = ?")
		args = append(args, h.Phone)
	}
	return strings.Join(conds, " OR "), args
}

func lockPartyResolution(ctx context.Context, hint PartyHint) (func(), error) {
	var releases []func()
	releaseAll := func() {
		for i := len(releases) - 1; i >= 0; i-- {
			releases[i]()
		}
	}
	for _, key := range hint.lockKeys() {
		release, err := utils.ObtainLock(ctx, key, 10*time.Second, "party.go", "lockPartyResolution")
		if err != nil {
			releaseAll()
			return func() {}, err
		}
		releases = append(releases, release)
	}
	return releaseAll, nil
}

// resolveParty finds a party by exact name OR exact phone, or creates one
// owned by actorId. The embedded hint never updates an existing party.
func resolveParty(tx *gorm.DB, hint PartyHint, actorId string) (*Party, bool, error) {
	hint = hint.normalized()
	if hint.empty() {
		return nil, false, utils.NewValidationError("party_id, party_name or phone is required")
	}

	cond, args := hint.matchConditions()
	var existing Party
	err := tx.Where(cond, args...).Order("created_at asc").Order("id asc").Take(&existing).Error
	if err == nil {
		return &existing, false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, err
	}

	name := hint.Name
	if name == "" {
		name = UnknownPartyName
	}
	key := hint.resolutionKey()
	party := Party{
		Name:          name,
		Phone:         hint.Phone,
		Email:         hint.Email,
		Address:       hint.Address,
		Notes:         hint.Notes,
		IsActive:      utils.NewTrue(),
		CreatedBy:     actorId,
		ResolutionKey: &key,
	}
	// savepoint, so a lost race does not abort the outer transaction
	createErr := tx.Transaction(func(sp *gorm.DB) error {
		return sp.Create(&party).Error
	})
	if createErr == nil {
		return &party, true, nil
	}
	if !utils.IsDuplicateKeyError(createErr) {
		return nil, false, createErr
	}
	// the winner committed after our first read; locking reads see it
	share := clause.Locking{Strength: "SHARE"}
	err = tx.Clauses(share).Where(cond, args...).Order("created_at asc").Order("id asc").Take(&existing).Error
	if err == nil {
		return &existing, false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, err
	}
	var keyed Party
	if err := tx.Clauses(share).Where("resolution_key = ?", key).Take(&keyed).Error; err != nil {
		return nil, false, err
	}
	if hint.matches(&keyed) {
		return &keyed, false, nil
	}
	// stale key left by a rename; release it and create once more
	if err := tx.Model(&keyed).Update("resolution_key", nil).Error; err != nil {
		return nil, false, err
	}
	if err := tx.Transaction(func(sp *gorm.DB) error {
		return sp.Create(&party).Error
	}); err != nil {
		return nil, false, err
	}
	return &party, true, nil
}
