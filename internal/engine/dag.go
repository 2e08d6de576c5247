package engine

import (
	"sort"

	"github.com/shaiso/Conveyor/internal/domain"
)

// Node — узел в DAG: один job из спецификации pipeline.
type Node struct {
	// Name — имя job (ключ в jobs).
	Name string

	// Job — определение job из PipelineSpec.
	Job *domain.JobDef

	// InDegree — количество входящих рёбер (зависимостей).
	InDegree int

	// DependsOn — узлы, от которых зависит этот узел.
	DependsOn []*Node

	// Dependents — узлы, которые зависят от этого узла.
	Dependents []*Node
}

// DAG — направленный ациклический граф jobs одного pipeline.
type DAG struct {
	// Nodes — все узлы графа (jobName → Node).
	Nodes map[string]*Node

	// RootNodes — узлы без зависимостей (стартуют сразу).
	RootNodes []*Node

	// Order — топологически отсортированный список узлов.
	Order []*Node
}

// BuildDAG строит DAG из PipelineSpec.
//
// Jobs без needs становятся корневыми узлами и запускаются
// параллельно. Возвращает ErrCyclicDependency при цикле.
func BuildDAG(spec *domain.PipelineSpec) (*DAG, error) {
	dag := &DAG{
		Nodes:     make(map[string]*Node),
		RootNodes: make([]*Node, 0),
	}

	// Первый проход: создаём все узлы
	names := make([]string, 0, len(spec.Jobs))
	for name := range spec.Jobs {
		names = append(names, name)
	}
	// Детерминированный порядок обхода map
	sort.Strings(names)

	for _, name := range names {
		job := spec.Jobs[name]
		dag.Nodes[name] = &Node{
			Name:       name,
			Job:        &job,
			DependsOn:  make([]*Node, 0),
			Dependents: make([]*Node, 0),
		}
	}

	// Второй проход: связываем узлы по needs
	for _, name := range names {
		node := dag.Nodes[name]
		for _, dep := range node.Job.Needs {
			depNode, exists := dag.Nodes[dep]
			if !exists {
				return nil, NewValidationError(name, "needs",
					"depends on unknown job: "+dep, ErrMissingDependency)
			}
			dag.addEdge(depNode, node)
		}
	}

	dag.findRootNodes()

	order, err := dag.topologicalSort()
	if err != nil {
		return nil, err
	}
	dag.Order = order

	return dag, nil
}

// addEdge добавляет ребро между узлами.
// Дополнительно проверяет на дубликаты, чтобы избежать двойного учета InDegree.
func (d *DAG) addEdge(from, to *Node) {
	for _, dep := range to.DependsOn {
		if dep.Name == from.Name {
			return // уже связаны
		}
	}
	from.Dependents = append(from.Dependents, to)
	to.DependsOn = append(to.DependsOn, from)
	to.InDegree++
}

// findRootNodes находит узлы без входящих рёбер.
func (d *DAG) findRootNodes() {
	d.RootNodes = make([]*Node, 0)
	for _, node := range d.Nodes {
		if node.InDegree == 0 {
			d.RootNodes = append(d.RootNodes, node)
		}
	}
	sort.Slice(d.RootNodes, func(i, j int) bool {
		return d.RootNodes[i].Name < d.RootNodes[j].Name
	})
}

// topologicalSort выполняет топологическую сортировку (алгоритм Кана).
// Возвращает ошибку, если обнаружен цикл.
func (d *DAG) topologicalSort() ([]*Node, error) {
	// Копируем inDegree, чтобы не модифицировать оригинал
	inDegree := make(map[string]int)
	for name, node := range d.Nodes {
		inDegree[name] = node.InDegree
	}

	queue := make([]*Node, len(d.RootNodes))
	copy(queue, d.RootNodes)

	order := make([]*Node, 0, len(d.Nodes))

	for len(queue) > 0 {
		node := queue[0]
		queue = queue[1:]
		order = append(order, node)

		for _, dependent := range node.Dependents {
			inDegree[dependent.Name]--
			if inDegree[dependent.Name] == 0 {
				queue = append(queue, dependent)
			}
		}
	}

	// Если не все узлы обработаны — есть цикл
	if len(order) != len(d.Nodes) {
		return nil, ErrCyclicDependency
	}

	return order, nil
}

// GetReadyNodes возвращает jobs, готовые к выполнению.
//
// Job готов, если:
// - Все его зависимости успешно завершены (в succeeded)
// - Сам job ещё не завершён, не в процессе и не пропущен
//
// succeeded — map jobName → true для успешно завершённых jobs.
// running — map jobName → true для jobs в процессе выполнения.
// settled — map jobName → true для jobs, завершившихся с FAILED
// или SKIPPED: их зависимые никогда не станут готовыми.
func (d *DAG) GetReadyNodes(succeeded, running, settled map[string]bool) []*Node {
	if succeeded == nil {
		succeeded = make(map[string]bool)
	}
	if running == nil {
		running = make(map[string]bool)
	}
	if settled == nil {
		settled = make(map[string]bool)
	}

	ready := make([]*Node, 0)

	for _, node := range d.Order {
		if succeeded[node.Name] || running[node.Name] || settled[node.Name] {
			continue
		}

		allDepsSucceeded := true
		for _, dep := range node.DependsOn {
			if !succeeded[dep.Name] {
				allDepsSucceeded = false
				break
			}
		}

		if allDepsSucceeded {
			ready = append(ready, node)
		}
	}

	return ready
}

// GetBlockedNodes возвращает jobs, которые никогда не смогут выполниться:
// хотя бы одна их зависимость (прямая или транзитивная) завершилась с
// FAILED или SKIPPED. Такие jobs помечаются SKIPPED.
func (d *DAG) GetBlockedNodes(succeeded, running, settled map[string]bool) []*Node {
	blocked := make([]*Node, 0)

	for _, node := range d.Order {
		if succeeded[node.Name] || running[node.Name] || settled[node.Name] {
			continue
		}

		for _, dep := range node.DependsOn {
			if settled[dep.Name] {
				blocked = append(blocked, node)
				break
			}
		}
	}

	return blocked
}

// GetNode возвращает узел по имени job.
func (d *DAG) GetNode(name string) *Node {
	return d.Nodes[name]
}

// Size возвращает количество узлов в DAG.
func (d *DAG) Size() int {
	return len(d.Nodes)
}

// IsComplete проверяет, все ли jobs дошли до терминального статуса.
func (d *DAG) IsComplete(succeeded, settled map[string]bool) bool {
	for name := range d.Nodes {
		if !succeeded[name] && !settled[name] {
			return false
		}
	}
	return true
}
