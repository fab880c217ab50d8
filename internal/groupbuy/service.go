package groupbuy

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"fishball-groupbuy/internal/catalog"
	"fishball-groupbuy/internal/pricing"
	"fishball-groupbuy/internal/queue"
	"fishball-groupbuy/internal/store"

	"go.uber.org/zap"
)

const (
	groupIDLength     = 10
	leaderTokenLength = 32
)

// Service owns every workflow operation. All writes go through the store and
// resolve to either success or a typed *Error; nothing here retries, and
// nothing mutates derived views optimistically — readers only see confirmed
// store state via their subscriptions.
type Service struct {
	Store  store.Store
	Logger *zap.Logger
	Events *queue.Publisher

	// WriteTimeout bounds each store write. Zero means the caller's context
	// rules, inherited from whatever client the store wraps.
	WriteTimeout time.Duration
}

func NewService(st store.Store, logger *zap.Logger, events *queue.Publisher, writeTimeout time.Duration) *Service {
	return &Service{Store: st, Logger: logger, Events: events, WriteTimeout: writeTimeout}
}

type CreateGroupParams struct {
	Name     string `json:"name"`
	Phone    string `json:"phone"`
	Location string `json:"location"`
	Date     string `json:"date"`
}

type CreatedGroup struct {
	GroupID     string `json:"groupId"`
	LeaderToken string `json:"leaderToken"`
}

// CreateGroup allocates the group document with its default subtrees. The
// leader token is minted once here and never rotated; whoever holds it is the
// leader.
func (s *Service) CreateGroup(ctx context.Context, params CreateGroupParams) (*CreatedGroup, *Error) {
	name := strings.TrimSpace(params.Name)
	if name == "" {
		return nil, PreconditionError(ErrGroupNameRequired, "請輸入團購名稱")
	}

	groupID := store.NewID(groupIDLength)
	leaderToken := store.NewID(leaderTokenLength)
	now := time.Now().UnixMilli()

	group := Group{
		Info: GroupInfo{
			Name:        name,
			Phone:       strings.TrimSpace(params.Phone),
			Location:    strings.TrimSpace(params.Location),
			Date:        strings.TrimSpace(params.Date),
			LeaderToken: leaderToken,
			LeaderNotes: "",
			CreatedAt:   now,
			Status:      StatusActive,
			OrderStatus: OrderStatusDraft,
		},
		Orders: map[string]Order{},
		VendorNotes: VendorNotes{
			ShippingStatus:   ShippingPending,
			Notes:            "",
			PriceAdjustments: map[string]float64{},
		},
	}

	doc, err := encodeValue(group)
	if err != nil {
		return nil, WriteError(err)
	}
	delete(doc, "id")

	writeCtx, cancel := s.writeContext(ctx)
	defer cancel()
	if err := s.Store.WriteReplace(writeCtx, GroupPath(groupID), doc); err != nil {
		return nil, WriteError(err)
	}

	s.Events.Publish(ctx, queue.EventGroupCreated, groupID, map[string]any{"name": name})
	return &CreatedGroup{GroupID: groupID, LeaderToken: leaderToken}, nil
}

type InfoUpdates struct {
	Name     *string `json:"name"`
	Phone    *string `json:"phone"`
	Location *string `json:"location"`
	Date     *string `json:"date"`
}

// UpdateGroupInfo merges leader-editable fields into info. The token, the
// creation timestamp and the workflow fields are not reachable through this
// path.
func (s *Service) UpdateGroupInfo(ctx context.Context, groupID string, updates InfoUpdates) *Error {
	fields := make(map[string]any)
	if updates.Name != nil {
		if strings.TrimSpace(*updates.Name) == "" {
			return PreconditionError(ErrGroupNameRequired, "請輸入團購名稱")
		}
		fields["name"] = strings.TrimSpace(*updates.Name)
	}
	if updates.Phone != nil {
		fields["phone"] = strings.TrimSpace(*updates.Phone)
	}
	if updates.Location != nil {
		fields["location"] = strings.TrimSpace(*updates.Location)
	}
	if updates.Date != nil {
		fields["date"] = strings.TrimSpace(*updates.Date)
	}
	if len(fields) == 0 {
		return nil
	}

	if _, err := s.loadInfo(ctx, groupID); err != nil {
		return err
	}
	return s.merge(ctx, InfoPath(groupID), fields)
}

// SaveOrder creates or updates one member's order. The total is recomputed
// through the pricing resolver on every save; it is a cached projection, never
// an input. Updates require an existing order id, so ids stay store-generated.
func (s *Service) SaveOrder(ctx context.Context, groupID, orderID, memberName string, items map[string]int) (string, *Error) {
	memberName = strings.TrimSpace(memberName)
	if memberName == "" {
		return "", PreconditionError(ErrMemberNameRequired, "請輸入團員姓名")
	}
	if items == nil {
		items = map[string]int{}
	}
	for productID, quantity := range items {
		if quantity < 0 {
			return "", PreconditionError(ErrInvalidQuantity, fmt.Sprintf("產品 %s 的數量不可為負數", productID))
		}
	}

	if _, err := s.loadInfo(ctx, groupID); err != nil {
		return "", err
	}
	if orderID != "" {
		orders, err := s.loadOrders(ctx, groupID)
		if err != nil {
			return "", err
		}
		if _, ok := orders[orderID]; !ok {
			return "", NotFoundError(ErrOrderNotFound, "找不到訂單")
		}
	}
	overrides, err := s.loadOverrides(ctx, groupID)
	if err != nil {
		return "", err
	}

	order := Order{
		MemberName: memberName,
		Items:      items,
		Total:      pricing.OrderTotal(items, overrides),
		UpdatedAt:  time.Now().UnixMilli(),
	}
	doc, encErr := encodeValue(order)
	if encErr != nil {
		return "", WriteError(encErr)
	}

	if orderID == "" {
		orderID = s.Store.GenerateID(OrdersPath(groupID))
		if err := s.replace(ctx, OrderPath(groupID, orderID), doc); err != nil {
			return "", err
		}
		return orderID, nil
	}
	if err := s.merge(ctx, OrderPath(groupID, orderID), doc); err != nil {
		return "", err
	}
	return orderID, nil
}

// DeleteOrder removes one order. The sole remaining order is never removed
// outright: it is replaced by a fresh empty order under a new id, so a group
// that has ever had a member keeps at least one order slot. Returns the id of
// that replacement when the reset path ran.
func (s *Service) DeleteOrder(ctx context.Context, groupID, orderID string) (string, *Error) {
	if _, err := s.loadInfo(ctx, groupID); err != nil {
		return "", err
	}
	orders, err := s.loadOrders(ctx, groupID)
	if err != nil {
		return "", err
	}
	if _, ok := orders[orderID]; !ok {
		return "", NotFoundError(ErrOrderNotFound, "找不到訂單")
	}

	if len(orders) > 1 {
		if err := s.remove(ctx, OrderPath(groupID, orderID)); err != nil {
			return "", err
		}
		return "", nil
	}

	fresh := Order{MemberName: "", Items: map[string]int{}, Total: 0, UpdatedAt: time.Now().UnixMilli()}
	doc, encErr := encodeValue(fresh)
	if encErr != nil {
		return "", WriteError(encErr)
	}

	freshID := s.Store.GenerateID(OrdersPath(groupID))
	if err := s.remove(ctx, OrderPath(groupID, orderID)); err != nil {
		return "", err
	}
	if err := s.replace(ctx, OrderPath(groupID, freshID), doc); err != nil {
		return "", err
	}
	return freshID, nil
}

// AddMember creates a placeholder order so the leader can fill quantities in
// for someone, named 團員 N like the leader sheet does.
func (s *Service) AddMember(ctx context.Context, groupID string) (string, *Error) {
	orders, err := s.loadOrders(ctx, groupID)
	if err != nil {
		return "", err
	}
	if _, err := s.loadInfo(ctx, groupID); err != nil {
		return "", err
	}

	order := Order{
		MemberName: fmt.Sprintf("團員 %d", len(orders)+1),
		Items:      map[string]int{},
		Total:      0,
		UpdatedAt:  time.Now().UnixMilli(),
	}
	doc, encErr := encodeValue(order)
	if encErr != nil {
		return "", WriteError(encErr)
	}

	orderID := s.Store.GenerateID(OrdersPath(groupID))
	if err := s.replace(ctx, OrderPath(groupID, orderID), doc); err != nil {
		return "", err
	}
	return orderID, nil
}

// SubmitToVendor moves draft -> submitted. Rejected locally when the group has
// no orders; no store round-trip happens in that case.
func (s *Service) SubmitToVendor(ctx context.Context, groupID string) *Error {
	info, err := s.loadInfo(ctx, groupID)
	if err != nil {
		return err
	}
	orders, err := s.loadOrders(ctx, groupID)
	if err != nil {
		return err
	}
	if len(orders) == 0 {
		return PreconditionError(ErrNoOrders, "尚無訂單，無法送單")
	}
	if !CanTransitionOrderStatus(info.OrderStatus, OrderStatusSubmitted) {
		return TransitionError(fmt.Sprintf("狀態 %s 無法送單", info.OrderStatus))
	}

	fields := map[string]any{
		"orderStatus": string(OrderStatusSubmitted),
		"submittedAt": time.Now().UnixMilli(),
	}
	if err := s.merge(ctx, InfoPath(groupID), fields); err != nil {
		return err
	}
	s.Events.Publish(ctx, queue.EventGroupSubmitted, groupID, map[string]any{"orders": len(orders)})
	return nil
}

// CancelSubmission moves submitted -> draft and clears both negotiation
// timestamps.
func (s *Service) CancelSubmission(ctx context.Context, groupID string) *Error {
	info, err := s.loadInfo(ctx, groupID)
	if err != nil {
		return err
	}
	if !CanTransitionOrderStatus(info.OrderStatus, OrderStatusDraft) {
		return TransitionError(fmt.Sprintf("狀態 %s 無法取消送單", info.OrderStatus))
	}

	fields := map[string]any{
		"orderStatus": string(OrderStatusDraft),
		"submittedAt": nil,
		"confirmedAt": nil,
	}
	if err := s.merge(ctx, InfoPath(groupID), fields); err != nil {
		return err
	}
	s.Events.Publish(ctx, queue.EventSubmissionCancelled, groupID, nil)
	return nil
}

// ConfirmOrder is the vendor accepting the submitted demand.
func (s *Service) ConfirmOrder(ctx context.Context, groupID string) *Error {
	info, err := s.loadInfo(ctx, groupID)
	if err != nil {
		return err
	}
	if !CanTransitionOrderStatus(info.OrderStatus, OrderStatusConfirmed) {
		return TransitionError(fmt.Sprintf("狀態 %s 無法確認收單", info.OrderStatus))
	}

	fields := map[string]any{
		"orderStatus": string(OrderStatusConfirmed),
		"confirmedAt": time.Now().UnixMilli(),
	}
	if err := s.merge(ctx, InfoPath(groupID), fields); err != nil {
		return err
	}
	s.Events.Publish(ctx, queue.EventGroupConfirmed, groupID, nil)
	return nil
}

// CancelConfirmation moves confirmed -> submitted, clearing only confirmedAt;
// submittedAt stays put. This re-opens member editing on the advisory axis.
func (s *Service) CancelConfirmation(ctx context.Context, groupID string) *Error {
	info, err := s.loadInfo(ctx, groupID)
	if err != nil {
		return err
	}
	if info.OrderStatus != OrderStatusConfirmed {
		return TransitionError(fmt.Sprintf("狀態 %s 無法取消確認", info.OrderStatus))
	}

	fields := map[string]any{
		"orderStatus": string(OrderStatusSubmitted),
		"confirmedAt": nil,
	}
	if err := s.merge(ctx, InfoPath(groupID), fields); err != nil {
		return err
	}
	s.Events.Publish(ctx, queue.EventConfirmationCancelled, groupID, nil)
	return nil
}

// CloseGroup is the leader's manual, irreversible stop on member editing.
func (s *Service) CloseGroup(ctx context.Context, groupID string) *Error {
	info, err := s.loadInfo(ctx, groupID)
	if err != nil {
		return err
	}
	if !CanTransitionStatus(info.Status, StatusClosed) {
		return TransitionError(fmt.Sprintf("狀態 %s 無法關閉", info.Status))
	}

	if err := s.merge(ctx, InfoPath(groupID), map[string]any{"status": string(StatusClosed)}); err != nil {
		return err
	}
	s.Events.Publish(ctx, queue.EventGroupClosed, groupID, nil)
	return nil
}

// CompleteGroup is the vendor's terminal flag. It requires a confirmed order
// round: completion of an unconfirmed group would skip the negotiation the
// rest of the workflow exists for. Never entered automatically.
func (s *Service) CompleteGroup(ctx context.Context, groupID string) *Error {
	info, err := s.loadInfo(ctx, groupID)
	if err != nil {
		return err
	}
	if info.OrderStatus != OrderStatusConfirmed {
		return TransitionError("必須先確認收單才能完成團購")
	}
	if !CanTransitionStatus(info.Status, StatusCompleted) {
		return TransitionError(fmt.Sprintf("狀態 %s 無法完成", info.Status))
	}

	fields := map[string]any{
		"status":      string(StatusCompleted),
		"completedAt": time.Now().UnixMilli(),
	}
	if err := s.merge(ctx, InfoPath(groupID), fields); err != nil {
		return err
	}
	s.Events.Publish(ctx, queue.EventGroupCompleted, groupID, nil)
	return nil
}

// AdjustPrice sets or clears a vendor override. Presence of the key is the
// override signal, so clearing writes a removal rather than a zero.
func (s *Service) AdjustPrice(ctx context.Context, groupID, productID string, price float64) *Error {
	if _, ok := catalog.Lookup(productID); !ok {
		return PreconditionError(ErrUnknownProduct, fmt.Sprintf("未知的產品 %s", productID))
	}
	if price < 0 {
		return PreconditionError(ErrInvalidPrice, "價格不可為負數")
	}
	if _, err := s.loadInfo(ctx, groupID); err != nil {
		return err
	}

	if price == 0 {
		return s.remove(ctx, PriceAdjustmentPath(groupID, productID))
	}
	return s.replace(ctx, PriceAdjustmentPath(groupID, productID), price)
}

func (s *Service) UpdateShippingStatus(ctx context.Context, groupID string, status ShippingStatus) *Error {
	if !ValidShippingStatus(status) {
		return PreconditionError(ErrInvalidShippingStatus, fmt.Sprintf("未知的出貨狀態 %s", status))
	}
	if _, err := s.loadInfo(ctx, groupID); err != nil {
		return err
	}
	if err := s.replace(ctx, ShippingStatusPath(groupID), string(status)); err != nil {
		return err
	}
	s.Events.Publish(ctx, queue.EventShippingUpdated, groupID, map[string]any{"shippingStatus": string(status)})
	return nil
}

func (s *Service) UpdateVendorNotes(ctx context.Context, groupID, notes string) *Error {
	if _, err := s.loadInfo(ctx, groupID); err != nil {
		return err
	}
	return s.replace(ctx, VendorNotesTextPath(groupID), notes)
}

func (s *Service) UpdateLeaderNotes(ctx context.Context, groupID, notes string) *Error {
	if _, err := s.loadInfo(ctx, groupID); err != nil {
		return err
	}
	return s.replace(ctx, LeaderNotesPath(groupID), notes)
}

// VerifyLeaderToken is the whole authorization scheme: a one-shot read and an
// exact value comparison. A mismatch is a denial; a failed read is reported as
// unavailable instead, so callers do not discard a cached token over a
// transient store fault.
func (s *Service) VerifyLeaderToken(ctx context.Context, groupID, candidate string) (bool, *Error) {
	if strings.TrimSpace(groupID) == "" || candidate == "" {
		return false, nil
	}
	value, err := s.Store.ReadOnce(ctx, LeaderTokenPath(groupID))
	if err != nil {
		return false, AuthUnavailableError(err)
	}
	stored, _ := value.(string)
	if stored == "" {
		return false, nil
	}
	return stored == candidate, nil
}

// GetGroup returns a one-shot snapshot of the whole document.
func (s *Service) GetGroup(ctx context.Context, groupID string) (*Group, *Error) {
	value, err := s.Store.ReadOnce(ctx, GroupPath(groupID))
	if err != nil {
		return nil, ReadError(err)
	}
	if value == nil {
		return nil, NotFoundError(ErrGroupNotFound, "團購不存在")
	}

	var group Group
	if err := decodeValue(value, &group); err != nil {
		return nil, ReadError(err)
	}
	group.ID = groupID
	if group.Orders == nil {
		group.Orders = map[string]Order{}
	}
	if group.VendorNotes.PriceAdjustments == nil {
		group.VendorNotes.PriceAdjustments = map[string]float64{}
	}
	return &group, nil
}

type GroupSummary struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	Location    string      `json:"location"`
	Date        string      `json:"date"`
	Status      Status      `json:"status"`
	OrderStatus OrderStatus `json:"orderStatus"`
	CreatedAt   int64       `json:"createdAt"`
	OrdersCount int         `json:"ordersCount"`
	TotalAmount float64     `json:"totalAmount"`
}

// ListGroups is the vendor overview: every group with its member count and the
// sum of cached order totals, newest first.
func (s *Service) ListGroups(ctx context.Context) ([]GroupSummary, *Error) {
	value, err := s.Store.ReadOnce(ctx, GroupsPath)
	if err != nil {
		return nil, ReadError(err)
	}
	if value == nil {
		return []GroupSummary{}, nil
	}

	raw, ok := value.(map[string]any)
	if !ok {
		return nil, ReadError(fmt.Errorf("groups root is not an object"))
	}

	summaries := make([]GroupSummary, 0, len(raw))
	for id, docValue := range raw {
		var group Group
		if err := decodeValue(docValue, &group); err != nil {
			s.logWarn("skipping undecodable group", id, err)
			continue
		}
		var total float64
		for _, order := range group.Orders {
			total += order.Total
		}
		summaries = append(summaries, GroupSummary{
			ID:          id,
			Name:        group.Info.Name,
			Location:    group.Info.Location,
			Date:        group.Info.Date,
			Status:      group.Info.Status,
			OrderStatus: group.Info.OrderStatus,
			CreatedAt:   group.Info.CreatedAt,
			OrdersCount: len(group.Orders),
			TotalAmount: total,
		})
	}
	sort.Slice(summaries, func(i, j int) bool { return summaries[i].CreatedAt > summaries[j].CreatedAt })
	return summaries, nil
}

// Redacted strips the leader token for anything leaving the service over HTTP
// or websocket. The store keeps the token where the original schema puts it;
// the presentation surface just never echoes it.
func (g *Group) Redacted() *Group {
	out := *g
	out.Info.LeaderToken = ""
	return &out
}

func (s *Service) loadInfo(ctx context.Context, groupID string) (GroupInfo, *Error) {
	value, err := s.Store.ReadOnce(ctx, InfoPath(groupID))
	if err != nil {
		return GroupInfo{}, ReadError(err)
	}
	if value == nil {
		return GroupInfo{}, NotFoundError(ErrGroupNotFound, "團購不存在")
	}
	var info GroupInfo
	if err := decodeValue(value, &info); err != nil {
		return GroupInfo{}, ReadError(err)
	}
	return info, nil
}

func (s *Service) loadOrders(ctx context.Context, groupID string) (map[string]Order, *Error) {
	value, err := s.Store.ReadOnce(ctx, OrdersPath(groupID))
	if err != nil {
		return nil, ReadError(err)
	}
	orders := make(map[string]Order)
	if value == nil {
		return orders, nil
	}
	if err := decodeValue(value, &orders); err != nil {
		return nil, ReadError(err)
	}
	return orders, nil
}

func (s *Service) loadOverrides(ctx context.Context, groupID string) (map[string]float64, *Error) {
	value, err := s.Store.ReadOnce(ctx, PriceAdjustmentsPath(groupID))
	if err != nil {
		return nil, ReadError(err)
	}
	overrides := make(map[string]float64)
	if value == nil {
		return overrides, nil
	}
	if err := decodeValue(value, &overrides); err != nil {
		return nil, ReadError(err)
	}
	return overrides, nil
}

func (s *Service) merge(ctx context.Context, path string, fields map[string]any) *Error {
	writeCtx, cancel := s.writeContext(ctx)
	defer cancel()
	if err := s.Store.WriteMerge(writeCtx, path, fields); err != nil {
		return WriteError(err)
	}
	return nil
}

func (s *Service) replace(ctx context.Context, path string, value any) *Error {
	writeCtx, cancel := s.writeContext(ctx)
	defer cancel()
	if err := s.Store.WriteReplace(writeCtx, path, value); err != nil {
		return WriteError(err)
	}
	return nil
}

func (s *Service) remove(ctx context.Context, path string) *Error {
	writeCtx, cancel := s.writeContext(ctx)
	defer cancel()
	if err := s.Store.Remove(writeCtx, path); err != nil {
		return WriteError(err)
	}
	return nil
}

func (s *Service) writeContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.WriteTimeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, s.WriteTimeout)
}

func (s *Service) logWarn(message, groupID string, err error) {
	if s.Logger != nil {
		s.Logger.Warn(message, zap.String("groupId", groupID), zap.Error(err))
	}
}
