package service

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/sebastiangaticacl/stvaldivia/internal/apierror"
	"github.com/sebastiangaticacl/stvaldivia/internal/dto"
	"github.com/sebastiangaticacl/stvaldivia/internal/model"
	"github.com/sebastiangaticacl/stvaldivia/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// RegistryService is the admin surface for the master data the ledger runs
// on: registers, products and employees.
type RegistryService interface {
	CreateRegister(ctx context.Context, req dto.CreateRegisterRequest) (*dto.RegisterResponse, error)
	GetRegister(ctx context.Context, id uuid.UUID) (*dto.RegisterResponse, error)
	ListRegisters(ctx context.Context) ([]dto.RegisterResponse, error)
	DeactivateRegister(ctx context.Context, id uuid.UUID) error

	CreateProduct(ctx context.Context, req dto.CreateProductRequest) (*dto.ProductResponse, error)
	ListProducts(ctx context.Context, category string) ([]dto.ProductResponse, error)

	CreateEmployee(ctx context.Context, req dto.CreateEmployeeRequest) (*dto.EmployeeResponse, error)
	UpdateEmployee(ctx context.Context, id string, req dto.UpdateEmployeeRequest) (*dto.EmployeeResponse, error)
	ListEmployees(ctx context.Context, includeInactive bool) ([]dto.EmployeeResponse, error)
	DeactivateEmployee(ctx context.Context, id string) error
}

type registryService struct {
	registerRepo repository.RegisterRepository
	productRepo  repository.ProductRepository
	employeeRepo repository.EmployeeRepository
	log          zerolog.Logger
}

func NewRegistryService(
	registerRepo repository.RegisterRepository,
	productRepo repository.ProductRepository,
	employeeRepo repository.EmployeeRepository,
	log zerolog.Logger,
) RegistryService {
	return &registryService{
		registerRepo: registerRepo,
		productRepo:  productRepo,
		employeeRepo: employeeRepo,
		log:          log,
	}
}

// ── Registers ────────────────────────────────────────────────────────────────

func (s *registryService) CreateRegister(ctx context.Context, req dto.CreateRegisterRequest) (*dto.RegisterResponse, error) {
	if _, err := s.registerRepo.FindByCode(ctx, req.Code); err == nil {
		return nil, apierror.Conflict(fmt.Sprintf("register code %q already exists", req.Code))
	}
	methods, err := json.Marshal(req.PaymentMethods)
	if err != nil {
		return nil, err
	}
	reg := &model.Register{
		Code:              req.Code,
		Name:              req.Name,
		Type:              req.Type,
		Location:          req.Location,
		PaymentMethods:    string(methods),
		OperationalStatus: "active",
		IsTest:            req.IsTest,
		IsActive:          true,
	}
	if err := s.registerRepo.Create(ctx, reg); err != nil {
		return nil, err
	}
	s.log.Info().Str("code", reg.Code).Str("type", reg.Type).Msg("register created")
	return registerToResponse(reg), nil
}

func (s *registryService) GetRegister(ctx context.Context, id uuid.UUID) (*dto.RegisterResponse, error) {
	reg, err := s.registerRepo.FindByID(ctx, id)
	if err != nil {
		return nil, apierror.NotFound("register not found")
	}
	return registerToResponse(reg), nil
}

func (s *registryService) ListRegisters(ctx context.Context) ([]dto.RegisterResponse, error) {
	registers, err := s.registerRepo.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]dto.RegisterResponse, len(registers))
	for i := range registers {
		out[i] = *registerToResponse(&registers[i])
	}
	return out, nil
}

func (s *registryService) DeactivateRegister(ctx context.Context, id uuid.UUID) error {
	if _, err := s.registerRepo.FindByID(ctx, id); err != nil {
		return apierror.NotFound("register not found")
	}
	return s.registerRepo.Deactivate(ctx, id)
}

// ── Products ─────────────────────────────────────────────────────────────────

func (s *registryService) CreateProduct(ctx context.Context, req dto.CreateProductRequest) (*dto.ProductResponse, error) {
	if _, err := s.productRepo.FindByName(ctx, req.Name); err == nil {
		return nil, apierror.Conflict(fmt.Sprintf("product %q already exists", req.Name))
	}
	p := &model.Product{
		Name:         req.Name,
		Category:     req.Category,
		Price:        req.Price,
		CostPrice:    req.CostPrice,
		StockQty:     req.StockQty,
		StockMinimum: req.StockMinimum,
		IsKit:        req.IsKit,
		IsTest:       req.IsTest,
		IsActive:     true,
	}
	if err := s.productRepo.Create(ctx, p); err != nil {
		return nil, err
	}
	return productToResponse(p), nil
}

func (s *registryService) ListProducts(ctx context.Context, category string) ([]dto.ProductResponse, error) {
	products, err := s.productRepo.List(ctx, category)
	if err != nil {
		return nil, err
	}
	out := make([]dto.ProductResponse, len(products))
	for i := range products {
		out[i] = *productToResponse(&products[i])
	}
	return out, nil
}

// ── Employees ────────────────────────────────────────────────────────────────

func (s *registryService) CreateEmployee(ctx context.Context, req dto.CreateEmployeeRequest) (*dto.EmployeeResponse, error) {
	if _, err := s.employeeRepo.FindByID(ctx, req.ID); err == nil {
		return nil, apierror.Conflict(fmt.Sprintf("employee %q already exists", req.ID))
	}
	hash, err := HashPIN(req.PIN)
	if err != nil {
		return nil, err
	}
	emp := &model.Employee{
		ID:          req.ID,
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		Name:        req.Name,
		Cargo:       req.Cargo,
		PINHash:     hash,
		IsCashier:   req.IsCashier,
		IsBartender: req.IsBartender,
		IsActive:    true,
	}
	if err := s.employeeRepo.Create(ctx, emp); err != nil {
		return nil, err
	}
	s.log.Info().Str("employee_id", emp.ID).Str("cargo", emp.Cargo).Msg("employee created")
	return employeeToResponse(emp), nil
}

func (s *registryService) UpdateEmployee(ctx context.Context, id string, req dto.UpdateEmployeeRequest) (*dto.EmployeeResponse, error) {
	emp, err := s.employeeRepo.FindByID(ctx, id)
	if err != nil {
		return nil, apierror.NotFound("employee not found")
	}
	if req.Name != "" {
		emp.Name = req.Name
	}
	if req.Cargo != "" {
		emp.Cargo = req.Cargo
	}
	if req.PIN != "" {
		hash, err := HashPIN(req.PIN)
		if err != nil {
			return nil, err
		}
		emp.PINHash = hash
	}
	if req.IsCashier != nil {
		emp.IsCashier = *req.IsCashier
	}
	if req.IsBartender != nil {
		emp.IsBartender = *req.IsBartender
	}
	if err := s.employeeRepo.Update(ctx, emp); err != nil {
		return nil, err
	}
	return employeeToResponse(emp), nil
}

func (s *registryService) ListEmployees(ctx context.Context, includeInactive bool) ([]dto.EmployeeResponse, error) {
	emps, err := s.employeeRepo.List(ctx, includeInactive)
	if err != nil {
		return nil, err
	}
	out := make([]dto.EmployeeResponse, len(emps))
	for i := range emps {
		out[i] = *employeeToResponse(&emps[i])
	}
	return out, nil
}

func (s *registryService) DeactivateEmployee(ctx context.Context, id string) error {
	if _, err := s.employeeRepo.FindByID(ctx, id); err != nil {
		return apierror.NotFound("employee not found")
	}
	return s.employeeRepo.Deactivate(ctx, id)
}

// ── Helpers ──────────────────────────────────────────────────────────────────

func registerToResponse(r *model.Register) *dto.RegisterResponse {
	var methods []string
	_ = json.Unmarshal([]byte(r.PaymentMethods), &methods)
	return &dto.RegisterResponse{
		ID:                r.ID.String(),
		Code:              r.Code,
		Name:              r.Name,
		Type:              r.Type,
		Location:          r.Location,
		PaymentMethods:    methods,
		OperationalStatus: r.OperationalStatus,
		IsTest:            r.IsTest,
		IsActive:          r.IsActive,
	}
}

func productToResponse(p *model.Product) *dto.ProductResponse {
	return &dto.ProductResponse{
		ID:       p.ID.String(),
		Name:     p.Name,
		Category: p.Category,
		Price:    p.Price,
		StockQty: p.StockQty,
		IsKit:    p.IsKit,
		IsActive: p.IsActive,
	}
}
