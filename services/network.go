package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/findingu/multinivel_backend/models"
	"github.com/findingu/multinivel_backend/utils"
)

// NetworkService builds the referral subtree views and the gamified goal
// list for the user dashboard.
type NetworkService struct {
	customers CustomerDirectory
	tracker   *ActivationTracker
	configs   ConfigStore
}

func NewNetworkService(customers CustomerDirectory, tracker *ActivationTracker, configs ConfigStore) *NetworkService {
	return &NetworkService{customers: customers, tracker: tracker, configs: configs}
}

// BuildTree assembles the spend-annotated subtree rooted at rootID for the
// given month, trimmed to maxDepth levels below the root (negative means
// unlimited). Children are ordered by month spend descending.
//
// Month spend is a point lookup per node. Fine at current network sizes;
// if the customer base grows past a few thousand this wants a batched read
// over associate_months keyed by monthKey.
func (s *NetworkService) BuildTree(ctx context.Context, rootID primitive.ObjectID, monthKey string, maxDepth int) (*models.NetworkNode, error) {
	cfg, err := s.configs.GetOrCreate(ctx)
	if err != nil {
		return nil, err
	}

	customers, err := s.customers.List(ctx)
	if err != nil {
		return nil, err
	}

	nodes := make(map[string]*models.NetworkNode, len(customers))
	childIDs := make(map[string][]string)
	for _, c := range customers {
		id := c.ID.Hex()
		node := &models.NetworkNode{
			ID:        id,
			Name:      c.Name,
			Level:     c.Level,
			CreatedAt: c.CreatedAt,
			Children:  []*models.NetworkNode{},
		}
		if c.LeaderID != nil {
			node.LeaderID = c.LeaderID.Hex()
			childIDs[node.LeaderID] = append(childIDs[node.LeaderID], id)
		}
		nodes[id] = node
	}

	root, ok := nodes[rootID.Hex()]
	if !ok {
		return &models.NetworkNode{ID: rootID.Hex(), Children: []*models.NetworkNode{}}, nil
	}

	for id, node := range nodes {
		oid, err := primitive.ObjectIDFromHex(id)
		if err != nil {
			continue
		}
		net, err := s.tracker.NetVolume(ctx, oid, monthKey)
		if err != nil {
			return nil, err
		}
		node.MonthSpend = net
		node.IsActive = net >= cfg.ActivationNetMin
	}

	for leaderID, kids := range childIDs {
		parent, ok := nodes[leaderID]
		if !ok {
			continue
		}
		children := make([]*models.NetworkNode, 0, len(kids))
		for _, kid := range kids {
			children = append(children, nodes[kid])
		}
		sort.Slice(children, func(i, j int) bool {
			return children[i].MonthSpend > children[j].MonthSpend
		})
		parent.Children = children
	}

	if maxDepth >= 0 {
		root = trimDepth(root, maxDepth)
	}
	return root, nil
}

func trimDepth(node *models.NetworkNode, depth int) *models.NetworkNode {
	clone := *node
	if depth <= 0 {
		clone.Children = []*models.NetworkNode{}
		return &clone
	}
	children := make([]*models.NetworkNode, 0, len(node.Children))
	for _, child := range node.Children {
		children = append(children, trimDepth(child, depth-1))
	}
	clone.Children = children
	return &clone
}

type flatNode struct {
	node  *models.NetworkNode
	depth int
}

func flattenTree(root *models.NetworkNode) []flatNode {
	var out []flatNode
	stack := []flatNode{{root, 0}}
	for len(stack) > 0 {
		top := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		out = append(out, top)
		for i := len(top.node.Children) - 1; i >= 0; i-- {
			stack = append(stack, flatNode{top.node.Children[i], top.depth + 1})
		}
	}
	return out
}

// Members flattens the subtree below the root into the dashboard table,
// capped at maxRows rows in depth-first order.
func (s *NetworkService) Members(root *models.NetworkNode, maxRows int) []models.NetworkMember {
	rows := []models.NetworkMember{}
	for _, fn := range flattenTree(root) {
		if fn.depth == 0 {
			continue
		}
		status := "Inactiva"
		if fn.node.IsActive {
			status = "Activa"
		} else if fn.node.MonthSpend > 0 {
			status = "En progreso"
		}
		rows = append(rows, models.NetworkMember{
			ID:     fn.node.ID,
			Name:   fn.node.Name,
			Level:  fmt.Sprintf("L%d", fn.depth),
			Spend:  fn.node.MonthSpend,
			Status: status,
		})
		if len(rows) >= maxRows {
			break
		}
	}
	return rows
}

// BuildGoals computes the gamified goal list for a customer: activation,
// three discount milestones interleaved with network goals, then the
// replication goal. Exactly one unlocked unachieved goal is primary.
func (s *NetworkService) BuildGoals(ctx context.Context, customer *models.Customer, root *models.NetworkNode, monthKey string) ([]models.Goal, error) {
	cfg, err := s.configs.GetOrCreate(ctx)
	if err != nil {
		return nil, err
	}

	customers, err := s.customers.List(ctx)
	if err != nil {
		return nil, err
	}

	myNet, err := s.tracker.NetVolume(ctx, customer.ID, monthKey)
	if err != nil {
		return nil, err
	}
	myActive := myNet >= cfg.ActivationNetMin

	computedRate := DiscountRateFor(myNet, cfg.DiscountTiers)
	effectiveRate := customer.DiscountRate
	if computedRate > effectiveRate {
		effectiveRate = computedRate
	}

	tiers := make([]models.DiscountTier, len(cfg.DiscountTiers))
	copy(tiers, cfg.DiscountTiers)
	sort.Slice(tiers, func(i, j int) bool { return tiers[i].Rate < tiers[j].Rate })
	tierMinForRate := func(threshold float64) float64 {
		for _, t := range tiers {
			if t.Rate >= threshold {
				return t.Min
			}
		}
		return cfg.ActivationNetMin
	}

	now := time.Now().UTC()
	monthStart, monthEnd := utils.MonthBounds(now)
	rootHex := customer.ID.Hex()

	treeIDs := make(map[string]bool)
	for _, fn := range flattenTree(root) {
		treeIDs[fn.node.ID] = true
	}

	newDirect := 0
	anyMemberAdded := false
	for _, c := range customers {
		if c.LeaderID == nil {
			continue
		}
		created := c.CreatedAt
		if created.Before(monthStart) || !created.Before(monthEnd) {
			continue
		}
		leaderHex := c.LeaderID.Hex()
		if leaderHex == rootHex {
			newDirect++
		}
		if treeIDs[leaderHex] {
			anyMemberAdded = true
		}
	}

	anyMemberActive := false
	for _, fn := range flattenTree(root) {
		if fn.depth == 0 {
			continue
		}
		if fn.node.MonthSpend >= cfg.ActivationNetMin {
			anyMemberActive = true
			break
		}
	}

	directCount := len(root.Children)
	allDirectOK := directCount > 0
	for _, child := range root.Children {
		if child.MonthSpend < cfg.ActivationNetMin {
			allDirectOK = false
			break
		}
	}

	canRefer := customer.CanRefer()
	lockedInvite := !canRefer

	goals := []models.Goal{{
		Key:      models.GoalKeyActive,
		Title:    "Alcanzar consumo mensual para ser usuario activo",
		Subtitle: fmt.Sprintf("Meta mensual: $%s neto", formatMoney(cfg.ActivationNetMin)),
		Target:   cfg.ActivationNetMin,
		Base:     myNet,
		Achieved: myActive,
		CtaText:  "Ir a tienda", CtaFragment: "merchant",
	}}

	discountRates := []float64{0.30, 0.35, 0.40}
	for idx, rate := range discountRates {
		target := tierMinForRate(rate)
		goals = append(goals, models.Goal{
			Key:      fmt.Sprintf("discount_%d", idx+1),
			Title:    fmt.Sprintf("Alcanzar el nivel %d de descuento", idx+1),
			Subtitle: fmt.Sprintf("Objetivo: %d%% (consumo aprox. desde $%s)", int(rate*100), formatMoney(target)),
			Target:   target,
			Base:     myNet,
			Achieved: effectiveRate >= rate,
			CtaText:  "Completar consumo", CtaFragment: "merchant",
		})
	}

	inviteSubtitle := "Invita a 1 persona y actívala"
	if lockedInvite {
		inviteSubtitle = "Tu nivel actual no permite referir"
	}
	goals = insertGoal(goals, 2, models.Goal{
		Key:         models.GoalKeyInvite,
		Title:       "Agregar un nuevo miembro a la red este mes",
		Subtitle:    inviteSubtitle,
		Target:      1,
		Base:        float64(newDirect),
		Achieved:    !lockedInvite && newDirect >= 1,
		Locked:      lockedInvite,
		IsCountGoal: true,
		CtaText:     "Invitar ahora", CtaFragment: "links",
	})

	goals = insertGoal(goals, 4, models.Goal{
		Key:         models.GoalKeyNetworkOneActive,
		Title:       "Lograr que un miembro de la red alcance su meta mensual",
		Subtitle:    fmt.Sprintf("Meta por miembro: $%s neto", formatMoney(cfg.ActivationNetMin)),
		Target:      1,
		Base:        boolBase(anyMemberActive),
		Achieved:    anyMemberActive,
		IsCountGoal: true,
		CtaText:     "Compartir enlace", CtaFragment: "links",
	})

	directSubtitle := fmt.Sprintf("Directos: %d", directCount)
	if directCount == 0 {
		directSubtitle = "Aún no tienes miembros directos"
	}
	directTarget := float64(directCount)
	if directCount == 0 {
		directTarget = 1
	}
	directBase := 0.0
	if allDirectOK {
		directBase = float64(directCount)
	}
	goals = insertGoal(goals, 6, models.Goal{
		Key:         models.GoalKeyDirectAllActive,
		Title:       "Lograr que todos los miembros del nivel inmediato inferior logren su meta mensual",
		Subtitle:    directSubtitle,
		Target:      directTarget,
		Base:        directBase,
		Achieved:    allDirectOK,
		Locked:      directCount == 0,
		IsCountGoal: true,
		CtaText:     "Impulsar a mi red", CtaFragment: "links",
	})

	replicateSubtitle := "Haz que tu red replique"
	if lockedInvite {
		replicateSubtitle = "Tu nivel actual no permite referir"
	}
	goals = append(goals, models.Goal{
		Key:         models.GoalKeyNetworkReplicated,
		Title:       "Lograr que un miembro de la red agregue un nuevo miembro",
		Subtitle:    replicateSubtitle,
		Target:      1,
		Base:        boolBase(anyMemberAdded),
		Achieved:    !lockedInvite && anyMemberAdded,
		Locked:      lockedInvite,
		IsCountGoal: true,
		CtaText:     "Compartir enlace", CtaFragment: "links",
	})

	primaryIdx := -1
	for i := range goals {
		if !goals[i].Locked && !goals[i].Achieved {
			primaryIdx = i
			break
		}
	}
	for i := range goals {
		goals[i].Primary = primaryIdx == i
		goals[i].Secondary = primaryIdx >= 0 && primaryIdx != i
	}

	return goals, nil
}

func insertGoal(goals []models.Goal, idx int, g models.Goal) []models.Goal {
	if idx >= len(goals) {
		return append(goals, g)
	}
	goals = append(goals, models.Goal{})
	copy(goals[idx+1:], goals[idx:])
	goals[idx] = g
	return goals
}

func boolBase(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

func formatMoney(v float64) string {
	n := int64(v)
	if n < 1000 {
		return fmt.Sprintf("%d", n)
	}
	var parts []string
	for n > 0 {
		if n >= 1000 {
			parts = append([]string{fmt.Sprintf("%03d", n%1000)}, parts...)
		} else {
			parts = append([]string{fmt.Sprintf("%d", n%1000)}, parts...)
		}
		n /= 1000
	}
	out := parts[0]
	for _, p := range parts[1:] {
		out += "," + p
	}
	return out
}
