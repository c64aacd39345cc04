// Package app wires the engine services, the in-memory snapshot, and the
// change broadcaster into one facade. Every write follows the same shape:
// commit through the engine, patch the local snapshot, publish sync messages
// for peers. Publish failures are logged, never surfaced — the database commit
// already happened and peers converge on their next reload.
package app

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"consignment-tracker/internal/backup"
	"consignment-tracker/internal/core"
	"consignment-tracker/internal/state"
	"consignment-tracker/internal/sync"
)

// deletion payload for DELETE_* actions.
type idPayload struct {
	ID string `json:"id"`
}

type Service struct {
	pool         *pgxpool.Pool
	products     core.ProductService
	partners     core.PartnerService
	consignments core.ConsignmentService
	sales        core.SaleService
	logBook      *core.LogBook
	backup       *backup.Service
	cache        *state.Store
	broadcaster  sync.Broadcaster
	senderID     string
}

func NewService(pool *pgxpool.Pool, broadcaster sync.Broadcaster) *Service {
	logBook := core.NewLogBook(pool)
	return &Service{
		pool:         pool,
		products:     core.NewProductService(pool, logBook),
		partners:     core.NewPartnerService(pool),
		consignments: core.NewConsignmentService(pool, logBook),
		sales:        core.NewSaleService(pool),
		logBook:      logBook,
		backup:       backup.NewService(pool, logBook),
		cache:        state.NewStore(),
		broadcaster:  broadcaster,
		senderID:     uuid.NewString(),
	}
}

// Start warms the snapshot from the database and begins applying peer
// messages.
func (s *Service) Start(ctx context.Context) error {
	if err := s.Reload(ctx); err != nil {
		return err
	}
	return s.broadcaster.Subscribe(ctx, func(msg sync.Message) {
		s.HandleSyncMessage(context.Background(), msg)
	})
}

func (s *Service) Close() error {
	return s.broadcaster.Close()
}

// Reload replaces the entire snapshot from the database.
func (s *Service) Reload(ctx context.Context) error {
	products, err := s.products.GetProducts(ctx)
	if err != nil {
		return fmt.Errorf("failed to load products: %w", err)
	}
	partners, err := s.partners.GetPartners(ctx)
	if err != nil {
		return fmt.Errorf("failed to load partners: %w", err)
	}
	consignments, err := s.consignments.GetConsignments(ctx, nil, nil)
	if err != nil {
		return fmt.Errorf("failed to load consignments: %w", err)
	}
	sales, err := s.sales.GetSales(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to load sales: %w", err)
	}
	s.cache.Load(products, partners, consignments, sales)
	return nil
}

func (s *Service) publish(ctx context.Context, action string, data any) {
	msg, err := sync.NewMessage(action, s.senderID, data)
	if err != nil {
		log.Printf("app: failed to encode %s message: %v", action, err)
		return
	}
	if err := s.broadcaster.Publish(ctx, msg); err != nil {
		log.Printf("app: failed to publish %s message: %v", action, err)
	}
}

// ── Products ─────────────────────────────────────────────────────────────────

func (s *Service) CreateProduct(ctx context.Context, input core.ProductInput) (*core.Product, error) {
	p, err := s.products.CreateProduct(ctx, input)
	if err != nil {
		return nil, err
	}
	s.cache.PutProduct(*p)
	s.publish(ctx, sync.ActionAddProduct, p)
	return p, nil
}

func (s *Service) UpdateProduct(ctx context.Context, id string, update core.ProductUpdate) (*core.Product, error) {
	p, err := s.products.UpdateProduct(ctx, id, update)
	if err != nil {
		return nil, err
	}
	s.cache.PutProduct(*p)
	s.publish(ctx, sync.ActionUpdateProduct, p)
	return p, nil
}

func (s *Service) DeleteProduct(ctx context.Context, id string) error {
	if err := s.products.DeleteProduct(ctx, id); err != nil {
		return err
	}
	s.cache.RemoveProduct(id)
	s.publish(ctx, sync.ActionDeleteProduct, idPayload{ID: id})
	return nil
}

func (s *Service) GetProduct(ctx context.Context, id string) (*core.Product, error) {
	if p, ok := s.cache.GetProduct(id); ok {
		return &p, nil
	}
	return s.products.GetProduct(ctx, id)
}

func (s *Service) ListProducts(_ context.Context) []core.Product {
	return s.cache.Products()
}

func (s *Service) ListLowStockProducts(_ context.Context) []core.Product {
	return s.cache.LowStockProducts()
}

func (s *Service) GetImage(ctx context.Context, id string) (*core.Image, error) {
	return s.products.GetImage(ctx, id)
}

func (s *Service) AddStockAdjustment(ctx context.Context, input core.AdjustmentInput) (*core.Product, *core.InventoryLogEntry, error) {
	p, entry, err := s.products.AddStockAdjustment(ctx, input)
	if err != nil {
		return nil, nil, err
	}
	s.cache.PutProduct(*p)
	s.publish(ctx, sync.ActionStockAdjustment, p)
	return p, entry, nil
}

// ── Partners ─────────────────────────────────────────────────────────────────

func (s *Service) CreatePartner(ctx context.Context, input core.PartnerInput) (*core.Partner, error) {
	p, err := s.partners.CreatePartner(ctx, input)
	if err != nil {
		return nil, err
	}
	s.cache.PutPartner(*p)
	s.publish(ctx, sync.ActionAddPartner, p)
	return p, nil
}

func (s *Service) UpdatePartner(ctx context.Context, id string, input core.PartnerInput) (*core.Partner, error) {
	p, err := s.partners.UpdatePartner(ctx, id, input)
	if err != nil {
		return nil, err
	}
	s.cache.PutPartner(*p)
	s.publish(ctx, sync.ActionUpdatePartner, p)
	return p, nil
}

func (s *Service) GetPartner(ctx context.Context, id string) (*core.Partner, error) {
	if p, ok := s.cache.GetPartner(id); ok {
		return &p, nil
	}
	return s.partners.GetPartner(ctx, id)
}

func (s *Service) ListPartners(_ context.Context) []core.Partner {
	return s.cache.Partners()
}

// ── Consignments ─────────────────────────────────────────────────────────────

func (s *Service) CreateConsignment(ctx context.Context, partnerID string, items []core.ConsignmentItem) (*core.ConsignmentOrder, error) {
	order, err := s.consignments.CreateConsignment(ctx, partnerID, items)
	if err != nil {
		return nil, err
	}
	s.cache.PutConsignment(*order)
	s.publish(ctx, sync.ActionAddConsignment, order)
	return order, nil
}

func (s *Service) ConfirmConsignment(ctx context.Context, id string) (*core.ConsignmentOrder, error) {
	order, err := s.consignments.ConfirmConsignment(ctx, id)
	if err != nil {
		return nil, err
	}
	s.cache.PutConsignment(*order)
	s.publish(ctx, sync.ActionUpdateConsignmentStatus, order)
	s.refreshProducts(ctx, consignmentProductIDs(order.Items))
	return order, nil
}

func (s *Service) CompleteConsignment(ctx context.Context, id string) (*core.ConsignmentOrder, error) {
	order, err := s.consignments.CompleteConsignment(ctx, id)
	if err != nil {
		return nil, err
	}
	s.cache.PutConsignment(*order)
	s.publish(ctx, sync.ActionUpdateConsignmentStatus, order)
	return order, nil
}

func (s *Service) RegisterSale(ctx context.Context, id string, items []core.SaleItem) (*core.ConsignmentOrder, *core.SaleRecord, error) {
	order, record, err := s.consignments.RegisterSale(ctx, id, items)
	if err != nil {
		return nil, nil, err
	}
	s.cache.PutConsignment(*order)
	s.cache.PutSale(*record)
	s.publish(ctx, sync.ActionUpdateConsignment, order)
	s.publish(ctx, sync.ActionAddSale, record)
	return order, record, nil
}

func (s *Service) ReturnItems(ctx context.Context, id string, items []core.QuantityItem) (*core.ConsignmentOrder, error) {
	order, err := s.consignments.ReturnItems(ctx, id, items)
	if err != nil {
		return nil, err
	}
	s.cache.PutConsignment(*order)
	s.publish(ctx, sync.ActionUpdateConsignment, order)
	ids := make([]string, 0, len(items))
	for _, it := range items {
		ids = append(ids, it.ProductID)
	}
	s.refreshProducts(ctx, ids)
	return order, nil
}

func (s *Service) MergeConsignments(ctx context.Context, targetID string, sourceIDs []string) (*core.ConsignmentOrder, error) {
	target, err := s.consignments.MergeConsignments(ctx, targetID, sourceIDs)
	if err != nil {
		return nil, err
	}
	s.cache.PutConsignment(*target)
	s.publish(ctx, sync.ActionUpdateConsignment, target)
	for _, srcID := range sourceIDs {
		s.cache.RemoveConsignment(srcID)
		s.publish(ctx, sync.ActionDeleteConsignment, idPayload{ID: srcID})
	}
	return target, nil
}

func (s *Service) DeleteConsignment(ctx context.Context, id string) error {
	if err := s.consignments.DeleteConsignment(ctx, id); err != nil {
		return err
	}
	s.cache.RemoveConsignment(id)
	s.publish(ctx, sync.ActionDeleteConsignment, idPayload{ID: id})
	return nil
}

func (s *Service) GetConsignment(ctx context.Context, id string) (*core.ConsignmentOrder, error) {
	if c, ok := s.cache.GetConsignment(id); ok {
		return &c, nil
	}
	return s.consignments.GetConsignment(ctx, id)
}

func (s *Service) ListConsignments(_ context.Context, partnerID *string, status *core.ConsignmentStatus) []core.ConsignmentOrder {
	all := s.cache.Consignments()
	if partnerID == nil && status == nil {
		return all
	}
	out := make([]core.ConsignmentOrder, 0, len(all))
	for _, c := range all {
		if partnerID != nil && c.PartnerID != *partnerID {
			continue
		}
		if status != nil && c.Status != *status {
			continue
		}
		out = append(out, c)
	}
	return out
}

// ── Sales and logs ───────────────────────────────────────────────────────────

func (s *Service) AddDirectSale(ctx context.Context, items []core.SaleItem, paymentMethod *string) (*core.SaleRecord, error) {
	record, updated, err := s.sales.AddDirectSale(ctx, items, paymentMethod)
	if err != nil {
		return nil, err
	}
	s.cache.PutSale(*record)
	s.publish(ctx, sync.ActionAddSale, record)
	for i := range updated {
		s.cache.PutProduct(updated[i])
		s.publish(ctx, sync.ActionUpdateProduct, &updated[i])
	}
	return record, nil
}

func (s *Service) ListSales(_ context.Context, saleType *core.SaleType, from, to *time.Time) []core.SaleRecord {
	all := s.cache.Sales()
	out := make([]core.SaleRecord, 0, len(all))
	for _, rec := range all {
		if saleType != nil && rec.Type != *saleType {
			continue
		}
		if from != nil && rec.Date.Before(*from) {
			continue
		}
		if to != nil && rec.Date.After(*to) {
			continue
		}
		out = append(out, rec)
	}
	return out
}

func (s *Service) GetLogs(ctx context.Context, filter core.LogFilter) ([]core.InventoryLogEntry, error) {
	return s.logBook.GetLogs(ctx, filter)
}

// ── Backup ───────────────────────────────────────────────────────────────────

func (s *Service) ExportBackup(ctx context.Context) (*backup.Document, error) {
	return s.backup.Export(ctx)
}

// ImportBackup restores a document, reloads the local snapshot, and tells
// every peer to do the same.
func (s *Service) ImportBackup(ctx context.Context, doc *backup.Document) error {
	if err := s.backup.Import(ctx, doc); err != nil {
		return err
	}
	if err := s.Reload(ctx); err != nil {
		return err
	}
	s.publish(ctx, sync.ActionReloadAll, nil)
	return nil
}

// ── Peer message handling ────────────────────────────────────────────────────

// HandleSyncMessage applies one peer message to the local snapshot. Own
// messages are dropped (the snapshot was already patched on the write path),
// unknown actions are logged and ignored so mixed-version deployments don't
// wedge each other.
func (s *Service) HandleSyncMessage(ctx context.Context, msg sync.Message) {
	if msg.SenderID == s.senderID {
		return
	}

	switch msg.Action {
	case sync.ActionAddProduct, sync.ActionUpdateProduct, sync.ActionStockAdjustment:
		var p core.Product
		if err := json.Unmarshal(msg.Data, &p); err != nil {
			log.Printf("app: bad %s payload: %v", msg.Action, err)
			return
		}
		s.cache.PutProduct(p)
	case sync.ActionDeleteProduct:
		var payload idPayload
		if err := json.Unmarshal(msg.Data, &payload); err != nil {
			log.Printf("app: bad %s payload: %v", msg.Action, err)
			return
		}
		s.cache.RemoveProduct(payload.ID)
	case sync.ActionAddPartner, sync.ActionUpdatePartner:
		var p core.Partner
		if err := json.Unmarshal(msg.Data, &p); err != nil {
			log.Printf("app: bad %s payload: %v", msg.Action, err)
			return
		}
		s.cache.PutPartner(p)
	case sync.ActionAddConsignment, sync.ActionUpdateConsignment, sync.ActionUpdateConsignmentStatus:
		var c core.ConsignmentOrder
		if err := json.Unmarshal(msg.Data, &c); err != nil {
			log.Printf("app: bad %s payload: %v", msg.Action, err)
			return
		}
		s.cache.PutConsignment(c)
	case sync.ActionDeleteConsignment:
		var payload idPayload
		if err := json.Unmarshal(msg.Data, &payload); err != nil {
			log.Printf("app: bad %s payload: %v", msg.Action, err)
			return
		}
		s.cache.RemoveConsignment(payload.ID)
	case sync.ActionAddSale:
		var rec core.SaleRecord
		if err := json.Unmarshal(msg.Data, &rec); err != nil {
			log.Printf("app: bad %s payload: %v", msg.Action, err)
			return
		}
		s.cache.PutSale(rec)
	case sync.ActionReloadAll:
		if err := s.Reload(ctx); err != nil {
			log.Printf("app: reload after peer import failed: %v", err)
		}
	default:
		log.Printf("app: ignoring unknown sync action %q", msg.Action)
	}
}

// refreshProducts rereads products whose stock changed inside an engine
// transaction, patches the snapshot, and notifies peers. Missing products are
// skipped; they were deleted mid-flight and carry no stock to report.
func (s *Service) refreshProducts(ctx context.Context, ids []string) {
	for _, id := range ids {
		p, err := s.products.GetProduct(ctx, id)
		if err != nil {
			continue
		}
		s.cache.PutProduct(*p)
		s.publish(ctx, sync.ActionUpdateProduct, p)
	}
}

func consignmentProductIDs(items []core.ConsignmentItem) []string {
	ids := make([]string, 0, len(items))
	for _, it := range items {
		ids = append(ids, it.ProductID)
	}
	return ids
}
