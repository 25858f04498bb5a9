package service

import (
	"context"
	"fmt"
	"math"
	"time"

	"go-stock-engine/internal/apperror"
	"go-stock-engine/internal/model"
	"go-stock-engine/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type ProductionRequest struct {
	ProductFamilyCode string `json:"product_family_code" validate:"required"`
	ContainerSize     int    `json:"container_size" validate:"required,oneof=5 10 20"`
	Count             int    `json:"count" validate:"required,gt=0"`
}

type SaleRequest struct {
	ProductFamilyCode string `json:"product_family_code" validate:"required"`
	ContainerSize     int    `json:"container_size" validate:"required,oneof=5 10 20"`
	Count             int    `json:"count" validate:"required,gt=0"`
}

type PurchaseItem struct {
	ProductCode string          `json:"product_code" validate:"required"`
	Qty         decimal.Decimal `json:"qty" validate:"decimal_gt0"`
}

type PurchaseRequest struct {
	Items []PurchaseItem `json:"items" validate:"required,min=1,dive"`
}

type ConsumedMaterial struct {
	RawMaterialCode string          `json:"raw_material_code"`
	Kg              decimal.Decimal `json:"kg"`
}

type ProductionResult struct {
	OperationID       uuid.UUID                `json:"operation_id"`
	ProductFamilyCode string                   `json:"product_family_code"`
	ContainerSize     int                      `json:"container_size"`
	Count             int                      `json:"count"`
	Liters            int                      `json:"liters"`
	Consumed          []ConsumedMaterial       `json:"consumed"`
	Entries           []model.StockLedgerEntry `json:"entries"`
}

type SaleResult struct {
	OperationID       uuid.UUID                `json:"operation_id"`
	ProductFamilyCode string                   `json:"product_family_code"`
	ContainerSize     int                      `json:"container_size"`
	Count             int                      `json:"count"`
	Liters            int                      `json:"liters"`
	Entries           []model.StockLedgerEntry `json:"entries"`
}

type PurchasedItem struct {
	ProductCode   string          `json:"product_code"`
	WarehouseCode string          `json:"warehouse_code"`
	Qty           decimal.Decimal `json:"qty"`
}

type PurchaseResult struct {
	OperationID uuid.UUID                `json:"operation_id"`
	Items       []PurchasedItem          `json:"items"`
	Entries     []model.StockLedgerEntry `json:"entries"`
}

// TransactionService turns business events into atomic sets of ledger entries.
// Every pre-check runs inside the same window as the writes it guards.
type TransactionService interface {
	Produce(ctx context.Context, req ProductionRequest, actorID string) (*ProductionResult, error)
	Sell(ctx context.Context, req SaleRequest, actorID string) (*SaleResult, error)
	Purchase(ctx context.Context, req PurchaseRequest, actorID string) (*PurchaseResult, error)
}

type transactionService struct {
	stock     repository.StockRepository
	catalog   catalogResolver
	publisher EventPublisher
	log       *zap.Logger

	publishTimeout time.Duration
}

// DefaultPublishTimeout bounds how long a committed operation waits on event delivery.
const DefaultPublishTimeout = time.Second

func NewTransactionService(stock repository.StockRepository, catalog repository.CatalogRepository, publisher EventPublisher, log *zap.Logger) TransactionService {
	if log == nil {
		log = zap.NewNop()
	}
	return &transactionService{
		stock:     stock,
		catalog:   catalogResolver{repo: catalog},
		publisher: publisher,
		log:       log,

		publishTimeout: DefaultPublishTimeout,
	}
}

func validateBatch(family string, size model.ContainerSize, count int, actorID string) error {
	if family == "" {
		return apperror.NewValidation("product family code is required")
	}
	if !size.Valid() {
		return apperror.NewValidation(fmt.Sprintf("container size %d is not one of 5, 10, 20", size))
	}
	if count <= 0 {
		return apperror.NewValidation("count must be a positive integer")
	}
	if count > math.MaxInt/int(size) {
		return apperror.NewValidation(fmt.Sprintf("count %d x %dL overflows the liter total", count, size))
	}
	if actorID == "" {
		return apperror.NewValidation("actor id is required")
	}
	return nil
}

func (s *transactionService) Produce(ctx context.Context, req ProductionRequest, actorID string) (*ProductionResult, error) {
	family := req.ProductFamilyCode
	size := model.ContainerSize(req.ContainerSize)
	if err := validateBatch(family, size, req.Count, actorID); err != nil {
		return nil, err
	}

	if err := s.catalog.warehouses(ctx, model.WarehouseRawMaterials, model.WarehouseEmptyGallons, model.WarehouseFinishedGoods); err != nil {
		return nil, err
	}
	formulas, err := s.catalog.formulas(ctx, family)
	if err != nil {
		return nil, err
	}
	containerCode := model.ContainerCode(size)
	packCode := model.PackagedCode(family, size)
	liquidCode := model.LiquidCode(family)
	roles := make([]productRole, 0, len(formulas)+3)
	for _, f := range formulas {
		roles = append(roles, productRole{f.RawMaterialCode, model.KindRawMaterial})
	}
	roles = append(roles,
		productRole{containerCode, model.KindEmptyContainer},
		productRole{packCode, model.KindPackagedProduct},
		productRole{liquidCode, model.KindLiquidProduct},
	)
	if err := s.resolveRoles(ctx, roles); err != nil {
		return nil, err
	}

	liters := req.Count * int(size)
	count := decimal.NewFromInt(int64(req.Count))
	litersQty := decimal.NewFromInt(int64(liters))

	consumed := make([]ConsumedMaterial, 0, len(formulas))
	keys := make([]model.BalanceKey, 0, len(formulas)+3)
	for _, f := range formulas {
		consumed = append(consumed, ConsumedMaterial{
			RawMaterialCode: f.RawMaterialCode,
			Kg:              f.KgPerLiter.Mul(litersQty),
		})
		keys = append(keys, model.BalanceKey{WarehouseCode: model.WarehouseRawMaterials, ProductCode: f.RawMaterialCode})
	}
	containerKey := model.BalanceKey{WarehouseCode: model.WarehouseEmptyGallons, ProductCode: containerCode}
	packKey := model.BalanceKey{WarehouseCode: model.WarehouseFinishedGoods, ProductCode: packCode}
	liquidKey := model.BalanceKey{WarehouseCode: model.WarehouseFinishedGoods, ProductCode: liquidCode}
	keys = append(keys, containerKey, packKey, liquidKey)

	batch := newEntryBatch(model.TxProduction, actorID)
	err = s.stock.WithinTx(ctx, func(tx repository.StockTx) error {
		balances, err := tx.LockBalances(ctx, keys)
		if err != nil {
			return err
		}
		for i, c := range consumed {
			if avail := balances[keys[i]]; avail.LessThan(c.Kg) {
				return apperror.NewInsufficientRawMaterial(c.RawMaterialCode, c.Kg, avail)
			}
		}
		if avail := balances[containerKey]; avail.LessThan(count) {
			return apperror.NewInsufficientContainers(containerCode, count, avail)
		}

		for i, c := range consumed {
			batch.add(keys[i], c.Kg.Neg())
		}
		batch.add(containerKey, count.Neg())
		batch.add(packKey, count)
		batch.add(liquidKey, litersQty)
		return batch.appendTo(ctx, tx)
	})
	if err != nil {
		return nil, s.rejected("production", err, zap.String("family", family), zap.Int("size", int(size)), zap.Int("count", req.Count))
	}

	s.log.Info("production committed",
		zap.String("operation_id", batch.operationID.String()),
		zap.String("actor_id", actorID),
		zap.String("family", family),
		zap.Int("size", int(size)),
		zap.Int("count", req.Count),
		zap.Int("liters", liters),
	)
	s.publish(ctx, batch, "production_committed",
		fmt.Sprintf("%s produced %d x %dL of %s", actorID, req.Count, size, family))

	return &ProductionResult{
		OperationID:       batch.operationID,
		ProductFamilyCode: family,
		ContainerSize:     int(size),
		Count:             req.Count,
		Liters:            liters,
		Consumed:          consumed,
		Entries:           batch.entries,
	}, nil
}

func (s *transactionService) Sell(ctx context.Context, req SaleRequest, actorID string) (*SaleResult, error) {
	family := req.ProductFamilyCode
	size := model.ContainerSize(req.ContainerSize)
	if err := validateBatch(family, size, req.Count, actorID); err != nil {
		return nil, err
	}

	if err := s.catalog.warehouses(ctx, model.WarehouseFinishedGoods); err != nil {
		return nil, err
	}
	packCode := model.PackagedCode(family, size)
	liquidCode := model.LiquidCode(family)
	err := s.resolveRoles(ctx, []productRole{
		{packCode, model.KindPackagedProduct},
		{liquidCode, model.KindLiquidProduct},
	})
	if err != nil {
		return nil, err
	}

	liters := req.Count * int(size)
	count := decimal.NewFromInt(int64(req.Count))
	litersQty := decimal.NewFromInt(int64(liters))
	packKey := model.BalanceKey{WarehouseCode: model.WarehouseFinishedGoods, ProductCode: packCode}
	liquidKey := model.BalanceKey{WarehouseCode: model.WarehouseFinishedGoods, ProductCode: liquidCode}

	batch := newEntryBatch(model.TxSale, actorID)
	err = s.stock.WithinTx(ctx, func(tx repository.StockTx) error {
		balances, err := tx.LockBalances(ctx, []model.BalanceKey{packKey, liquidKey})
		if err != nil {
			return err
		}
		if avail := balances[packKey]; avail.LessThan(count) {
			return apperror.NewInsufficientPackagedStock(packCode, count, avail)
		}
		// Production and sale move both balances together, so this only
		// fires when something else has written to the finished-goods pairs.
		if avail := balances[liquidKey]; avail.LessThan(litersQty) {
			s.log.Error("liquid balance out of step with packaged balance",
				zap.String("family", family),
				zap.String("packaged", balances[packKey].String()),
				zap.String("liquid", avail.String()),
				zap.String("need_liters", litersQty.String()),
			)
			return apperror.NewInsufficientLiquidStock(liquidCode, litersQty, avail)
		}

		batch.add(packKey, count.Neg())
		batch.add(liquidKey, litersQty.Neg())
		return batch.appendTo(ctx, tx)
	})
	if err != nil {
		return nil, s.rejected("sale", err, zap.String("family", family), zap.Int("size", int(size)), zap.Int("count", req.Count))
	}

	s.log.Info("sale committed",
		zap.String("operation_id", batch.operationID.String()),
		zap.String("actor_id", actorID),
		zap.String("family", family),
		zap.Int("size", int(size)),
		zap.Int("count", req.Count),
	)
	s.publish(ctx, batch, "sale_committed",
		fmt.Sprintf("%s sold %d x %dL of %s", actorID, req.Count, size, family))

	return &SaleResult{
		OperationID:       batch.operationID,
		ProductFamilyCode: family,
		ContainerSize:     int(size),
		Count:             req.Count,
		Liters:            liters,
		Entries:           batch.entries,
	}, nil
}

func (s *transactionService) Purchase(ctx context.Context, req PurchaseRequest, actorID string) (*PurchaseResult, error) {
	if len(req.Items) == 0 {
		return nil, apperror.NewValidation("purchase must contain at least one item")
	}
	if actorID == "" {
		return nil, apperror.NewValidation("actor id is required")
	}
	if err := s.catalog.warehouses(ctx, model.WarehouseRawMaterials, model.WarehouseEmptyGallons); err != nil {
		return nil, err
	}

	items := make([]PurchasedItem, 0, len(req.Items))
	for i, item := range req.Items {
		if !item.Qty.IsPositive() {
			return nil, apperror.NewValidation(fmt.Sprintf("item %d: qty must be positive", i)).
				WithDetail("product_code", item.ProductCode)
		}
		product, err := s.catalog.product(ctx, item.ProductCode)
		if err != nil {
			return nil, err
		}
		warehouse, err := purchaseTarget(product)
		if err != nil {
			return nil, err
		}
		items = append(items, PurchasedItem{
			ProductCode:   product.Code,
			WarehouseCode: warehouse,
			Qty:           item.Qty,
		})
	}

	batch := newEntryBatch(model.TxPurchase, actorID)
	for _, item := range items {
		batch.add(model.BalanceKey{WarehouseCode: item.WarehouseCode, ProductCode: item.ProductCode}, item.Qty)
	}
	err := s.stock.WithinTx(ctx, func(tx repository.StockTx) error {
		return batch.appendTo(ctx, tx)
	})
	if err != nil {
		return nil, s.rejected("purchase", err, zap.Int("items", len(items)))
	}

	s.log.Info("purchase committed",
		zap.String("operation_id", batch.operationID.String()),
		zap.String("actor_id", actorID),
		zap.Int("items", len(items)),
	)
	s.publish(ctx, batch, "purchase_committed",
		fmt.Sprintf("%s purchased %d item(s)", actorID, len(items)))

	return &PurchaseResult{
		OperationID: batch.operationID,
		Items:       items,
		Entries:     batch.entries,
	}, nil
}

type productRole struct {
	code string
	kind model.ProductKind
}

func (s *transactionService) resolveRoles(ctx context.Context, roles []productRole) error {
	for _, r := range roles {
		if _, err := s.catalog.productOfKind(ctx, r.code, r.kind); err != nil {
			return err
		}
	}
	return nil
}

// purchaseTarget routes a purchased product to the warehouse that stocks it.
func purchaseTarget(p *model.Product) (string, error) {
	switch p.Kind {
	case model.KindRawMaterial:
		return model.WarehouseRawMaterials, nil
	case model.KindEmptyContainer:
		return model.WarehouseEmptyGallons, nil
	case model.KindPackagedProduct, model.KindLiquidProduct:
		return "", apperror.NewDisallowedPurchaseTarget(p.Code, string(p.Kind))
	default:
		return "", apperror.NewDisallowedPurchaseTarget(p.Code, string(p.Kind))
	}
}

// rejected logs a failed operation and wraps infrastructure errors.
func (s *transactionService) rejected(op string, err error, fields ...zap.Field) error {
	fields = append(fields, zap.Error(err))
	if appErr, ok := apperror.As(err); ok {
		fields = append(fields, zap.String("kind", string(appErr.Kind)))
		s.log.Warn(op+" rejected", fields...)
		return err
	}
	s.log.Error(op+" failed", fields...)
	return fmt.Errorf("%s: %w", op, err)
}

// publish runs after commit. Failures are logged and never reach the caller.
func (s *transactionService) publish(ctx context.Context, batch *entryBatch, action, message string) {
	if s.publisher == nil {
		return
	}
	event := model.StockEvent{
		Type:        model.EventStockUpdate,
		Action:      action,
		OperationID: batch.operationID,
		ActorID:     batch.actorID,
		Entries:     batch.entries,
		Message:     message,
		Timestamp:   time.Now().UTC(),
	}
	// Detached from the request so a cancelled client cannot drop the event,
	// and bounded so a slow broker cannot hold the response.
	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.publishTimeout)
	defer cancel()
	if err := s.publisher.Publish(pubCtx, event); err != nil {
		s.log.Warn("publish stock event failed",
			zap.String("operation_id", batch.operationID.String()),
			zap.String("action", action),
			zap.Error(err),
		)
	}
}
