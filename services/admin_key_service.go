package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/bidtounsi/go-bidtounsi-server/global"
	"github.com/bidtounsi/go-bidtounsi-server/repository"
	"github.com/bidtounsi/go-bidtounsi-server/types"
	"github.com/bidtounsi/go-bidtounsi-server/util"
)

const (
	expiredKeysDesign = "adminkey"
	expiredKeysView   = "expired"
	sweepBatchSize    = 100
)

// AdminKeyService owns the full lifecycle of admin keys: issuance with
// supersede-on-issue, single-use redemption, and expired-key sweeping.
type AdminKeyService struct {
	keyRepo repository.Repository
	nowFn   func() time.Time
}

func NewAdminKeyService(dbSelector repository.DBSelector) *AdminKeyService {
	keyRepo, err := dbSelector.ChooseDB(repository.AdminKeys)
	if err != nil {
		panic(err)
	}
	return &AdminKeyService{
		keyRepo: keyRepo,
		nowFn:   time.Now,
	}
}

// CreateKey mints a fresh key of the given kind bound to the email identity,
// removing any still-live keys for that identity first. At most one live key
// per identity exists after this returns.
func (aks *AdminKeyService) CreateKey(ctx context.Context, email string, name string, kind types.KeyKind) (*types.AdminKey, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil, types.ErrInvalidEmail
	}

	if err := aks.removeLiveKeys(ctx, email); err != nil {
		global.Logger.Log("level", "error", "msg", "failed to supersede live keys", "email", email, "err", err.Error())
		return nil, err
	}

	now := aks.nowFn().UTC()
	ttl := global.Conf.Admin.RequestKeyTTL()
	if kind == types.KeyKindAdmin {
		ttl = global.Conf.Admin.AdminKeyTTL()
	}

	key := util.GenerateKey(kind)
	doc := &types.AdminKey{
		BaseDocument: types.BaseDocument{ID: key},
		Key:          key,
		Email:        email,
		Name:         name,
		Created:      now.UnixMilli(),
		ExpiresAt:    now.Add(ttl).UnixMilli(),
		IsUsed:       false,
	}
	if err := aks.keyRepo.Save(ctx, key, doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// GetActiveKeyByEmail returns the single live key bound to the email, or
// ErrNotFound when none exists
func (aks *AdminKeyService) GetActiveKeyByEmail(ctx context.Context, email string) (*types.AdminKey, error) {
	keys, err := aks.findLiveKeys(ctx, email)
	if err != nil {
		return nil, err
	}
	if len(keys) == 0 {
		return nil, types.ErrNotFound
	}
	return &keys[0], nil
}

// RedeemKey atomically consumes the key when it is live and bound to the given
// email. It returns (true, nil) for the single winner, (false, nil) for every
// invalid, expired, consumed, mismatched or lost-race attempt, and a non-nil
// error only for infrastructure failures. Callers cannot distinguish why a
// redemption failed, which is deliberate.
func (aks *AdminKeyService) RedeemKey(ctx context.Context, key string, email string) (bool, error) {
	// malformed keys never reach the store
	if !util.IsKeyFormat(key) {
		return false, nil
	}
	email = strings.ToLower(strings.TrimSpace(email))

	resp, err := aks.keyRepo.GetByID(ctx, key)
	if err != nil {
		if errors.Is(err, types.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	var doc types.AdminKey
	if mErr := repository.MapToObject(resp.(*resty.Response), &doc); mErr != nil {
		return false, mErr
	}

	if !strings.EqualFold(doc.Email, email) {
		return false, nil
	}
	if !doc.IsLive(aks.nowFn()) {
		return false, nil
	}

	doc.IsUsed = true
	doc.UsedAt = aks.nowFn().UTC().UnixMilli()
	if uErr := aks.keyRepo.Update(ctx, key, &doc); uErr != nil {
		// a concurrent redeemer won the revision race
		if errors.Is(uErr, types.ErrConflict) {
			return false, nil
		}
		return false, uErr
	}
	return true, nil
}

// RemoveExpiredKeys deletes every key whose expiry is in the past, in batches.
// Consumed-but-unexpired keys are kept until expiry as an audit trail.
// Returns the number of removed documents.
func (aks *AdminKeyService) RemoveExpiredKeys(ctx context.Context) (int, error) {
	c := aks.keyRepo.GetClient().(*resty.Client)
	removed := 0
	for {
		nowMillis := aks.nowFn().UTC().UnixMilli()
		viewURL := fmt.Sprintf("%s/_design/%s/_view/%s?endkey=%d&limit=%d",
			aks.keyRepo.GetDBName(), expiredKeysDesign, expiredKeysView, nowMillis, sweepBatchSize)

		var result struct {
			Rows []struct {
				ID    string `json:"id"`
				Value string `json:"value"` // _rev emitted by the view
			} `json:"rows"`
		}
		resp, err := c.R().SetContext(ctx).SetResult(&result).Get(viewURL)
		if err != nil {
			return removed, err
		}
		if resp.IsError() {
			return removed, fmt.Errorf("expired keys view query failed: %s", resp.Body())
		}
		if len(result.Rows) == 0 {
			return removed, nil
		}

		toDelete := make([]types.BaseDocument, 0, len(result.Rows))
		for _, row := range result.Rows {
			if strings.HasPrefix(row.ID, "_design/") {
				continue
			}
			toDelete = append(toDelete, types.BaseDocument{ID: row.ID, Rev: row.Value, Deleted: true})
		}
		if len(toDelete) == 0 {
			return removed, nil
		}
		if dErr := aks.keyRepo.BulkDelete(ctx, toDelete); dErr != nil {
			return removed, dErr
		}
		removed += len(toDelete)
	}
}

// findLiveKeys selects unconsumed, unexpired keys bound to the email
func (aks *AdminKeyService) findLiveKeys(ctx context.Context, email string) ([]types.AdminKey, error) {
	query := map[string]interface{}{
		"selector": map[string]interface{}{
			"email":  strings.ToLower(strings.TrimSpace(email)),
			"isUsed": false,
			"expiresAt": map[string]interface{}{
				"$gt": aks.nowFn().UTC().UnixMilli(),
			},
		},
		"use_index": "adminkey-email-index",
		"limit":     50,
	}
	resp, err := aks.keyRepo.Find(ctx, query)
	if err != nil {
		return nil, err
	}
	var result types.FindResult[types.AdminKey]
	if mErr := repository.MapToObject(resp.(*resty.Response), &result); mErr != nil {
		return nil, mErr
	}
	return result.Docs, nil
}

// removeLiveKeys deletes all live keys for the identity (supersede-on-issue)
func (aks *AdminKeyService) removeLiveKeys(ctx context.Context, email string) error {
	keys, err := aks.findLiveKeys(ctx, email)
	if err != nil {
		return err
	}
	if len(keys) == 0 {
		return nil
	}
	toDelete := make([]types.BaseDocument, 0, len(keys))
	for _, k := range keys {
		toDelete = append(toDelete, types.BaseDocument{ID: k.ID, Rev: k.Rev, Deleted: true})
	}
	return aks.keyRepo.BulkDelete(ctx, toDelete)
}
