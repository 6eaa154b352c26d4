package cfg

import (
	"fmt"
	"os"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/cpp"
)

type cppCFGExtractor struct {
	content  []byte
	tree     *sitter.Tree
	blocks   map[string]*CFGBlock
	edges    []CFGEdge
	blockID  int
	funcName string
}

func newCppCFGExtractor(content []byte, funcName string) *cppCFGExtractor {
	parser := sitter.NewParser()
	parser.SetLanguage(cpp.GetLanguage())
	tree := parser.Parse(nil, content)

	return &cppCFGExtractor{
		content:  content,
		tree:     tree,
		blocks:   make(map[string]*CFGBlock),
		edges:    make([]CFGEdge, 0),
		blockID:  0,
		funcName: funcName,
	}
}

// ExtractCppCFG extracts the Control Flow Graph from a C++ function or
// method, including methods nested in a class_specifier body.
func ExtractCppCFG(filePath string, functionName string) (*CFGInfo, error) {
	content, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("reading file %s: %w", filePath, err)
	}

	extractor := newCppCFGExtractor(content, functionName)
	defer extractor.tree.Close()

	root := extractor.tree.RootNode()
	funcNode := extractor.findFunction(root, functionName)
	if funcNode == nil {
		return nil, fmt.Errorf("function %q not found in %s", functionName, filePath)
	}

	blockNode := extractor.findBlock(funcNode)
	if blockNode == nil {
		return nil, fmt.Errorf("function body not found for %s", functionName)
	}

	entryBlock := extractor.newBlock(BlockTypeEntry, int(funcNode.StartPoint().Row)+1)
	entryBlock.Statements = []string{"entry"}
	extractor.addBlock(entryBlock)

	currentBlock := entryBlock
	extractor.processBlock(blockNode, &currentBlock)

	exitBlock := extractor.newBlock(BlockTypeExit, int(funcNode.EndPoint().Row)+1)
	exitBlock.Statements = []string{"exit"}
	extractor.addBlock(exitBlock)

	if currentBlock != nil && currentBlock.ID != exitBlock.ID {
		extractor.addEdge(currentBlock.ID, exitBlock.ID, EdgeTypeUnconditional)
	}

	complexity := extractor.calculateCyclomaticComplexity(blockNode)

	return &CFGInfo{
		FunctionName:         functionName,
		Blocks:               extractor.blocksToMap(),
		Edges:                extractor.edges,
		EntryBlockID:         entryBlock.ID,
		ExitBlockIDs:         []string{exitBlock.ID},
		CyclomaticComplexity: complexity,
	}, nil
}

func (e *cppCFGExtractor) findFunction(node *sitter.Node, funcName string) *sitter.Node {
	if node == nil {
		return nil
	}

	if node.Type() == "function_definition" {
		funcNameNode := e.findChildByType(node, "identifier")
		if funcNameNode != nil && e.nodeText(funcNameNode) == funcName {
			return node
		}
	}

	if node.Type() == "class_specifier" {
		classBody := e.findChildByType(node, "field_declaration_list")
		if classBody != nil {
			for i := 0; i < int(classBody.ChildCount()); i++ {
				child := classBody.Child(i)
				if child != nil {
					if result := e.findFunction(child, funcName); result != nil {
						return result
					}
				}
			}
		}
	}

	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		if child == nil || child.Type() == "preproc_include" || child.Type() == "comment" {
			continue
		}
		if result := e.findFunction(child, funcName); result != nil {
			return result
		}
	}

	return nil
}

func (e *cppCFGExtractor) findBlock(node *sitter.Node) *sitter.Node {
	if node == nil {
		return nil
	}

	if node.Type() == "compound_statement" {
		return node
	}

	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		if child != nil {
			if result := e.findBlock(child); result != nil {
				return result
			}
		}
	}

	return nil
}

func (e *cppCFGExtractor) processBlock(blockNode *sitter.Node, currentBlock **CFGBlock) {
	if blockNode == nil {
		return
	}

	for i := 0; i < int(blockNode.ChildCount()); i++ {
		child := blockNode.Child(i)
		if child == nil {
			continue
		}

		switch child.Type() {
		case "if_statement":
			e.processIfStatement(child, currentBlock)

		case "switch_statement":
			e.processSwitchStatement(child, currentBlock)

		case "for_statement", "for_range_loop":
			e.processForStatement(child, currentBlock)

		case "while_statement":
			e.processWhileStatement(child, currentBlock)

		case "do_statement":
			e.processDoWhileStatement(child, currentBlock)

		case "return_statement":
			e.processReturnStatement(child, currentBlock)

		case "break_statement":
			e.processBreakStatement(child, currentBlock)

		case "continue_statement":
			e.processContinueStatement(child, currentBlock)

		case "goto_statement":
			e.processGotoStatement(child, currentBlock)

		case "try_statement":
			e.processTryStatement(child, currentBlock)

		case "throw_statement":
			e.processThrowStatement(child, currentBlock)

		case "labeled_statement":
			stmt := e.nodeText(child)
			if stmt != "" && *currentBlock != nil {
				(*currentBlock).Statements = append((*currentBlock).Statements, stmt)
				(*currentBlock).EndLine = int(child.EndPoint().Row) + 1
			}

		case "case_statement":
			e.processCaseStatement(child, currentBlock)

		case "attribute":

		default:
			stmt := e.nodeText(child)
			stmt = strings.TrimSpace(stmt)
			if stmt != "" && !strings.HasPrefix(stmt, "//") && !strings.HasPrefix(stmt, "/*") {
				if *currentBlock != nil {
					(*currentBlock).Statements = append((*currentBlock).Statements, stmt)
					(*currentBlock).EndLine = int(child.EndPoint().Row) + 1
				}
			}
		}
	}
}

func (e *cppCFGExtractor) processIfStatement(node *sitter.Node, currentBlock **CFGBlock) {
	if node == nil {
		return
	}

	var condition string
	var consequent *sitter.Node
	var alternative *sitter.Node

	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		if child == nil {
			continue
		}
		switch child.Type() {
		case "condition":
			condition = e.nodeText(child)
		case "consequence":
			consequent = child
		case "alternative":
			alternative = child
		}
	}

	branchBlock := e.newBlock(BlockTypeBranch, int(node.StartPoint().Row)+1)
	branchBlock.Statements = []string{"if (" + condition + ")"}
	e.addBlock(branchBlock)

	if *currentBlock != nil {
		e.addEdge((*currentBlock).ID, branchBlock.ID, EdgeTypeUnconditional)
	}

	consequentBlock := e.newBlock(BlockTypePlain, int(node.StartPoint().Row)+1)
	e.addBlock(consequentBlock)
	e.addEdge(branchBlock.ID, consequentBlock.ID, EdgeTypeTrue)

	beforeElseBlock := consequentBlock

	if consequent != nil {
		e.processBlock(consequent, &consequentBlock)
		beforeElseBlock = consequentBlock
	}

	if alternative != nil {
		elseBlock := e.newBlock(BlockTypePlain, int(alternative.StartPoint().Row)+1)
		e.addBlock(elseBlock)
		e.addEdge(branchBlock.ID, elseBlock.ID, EdgeTypeFalse)

		hasElseBody := false
		for i := 0; i < int(alternative.ChildCount()); i++ {
			child := alternative.Child(i)
			if child != nil && (child.Type() == "compound_statement" || child.Type() == "if_statement") {
				hasElseBody = true
				break
			}
		}

		if hasElseBody {
			e.processBlock(alternative, &elseBlock)
			beforeElseBlock = elseBlock
		} else {
			elseIfBlock := e.newBlock(BlockTypePlain, int(alternative.StartPoint().Row)+1)
			e.addBlock(elseIfBlock)
			e.addEdge(branchBlock.ID, elseIfBlock.ID, EdgeTypeFalse)

			for i := 0; i < int(alternative.ChildCount()); i++ {
				child := alternative.Child(i)
				if child != nil && child.Type() == "if_statement" {
					e.processIfStatement(child, &elseIfBlock)
					beforeElseBlock = elseIfBlock
					break
				}
			}
		}
	} else {
		*currentBlock = branchBlock
		return
	}

	*currentBlock = beforeElseBlock
}

func (e *cppCFGExtractor) processSwitchStatement(node *sitter.Node, currentBlock **CFGBlock) {
	if node == nil {
		return
	}

	var condition string
	var body *sitter.Node

	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		if child == nil {
			continue
		}
		switch child.Type() {
		case "condition":
			condition = e.nodeText(child)
		case "body":
			body = child
		}
	}

	switchBlock := e.newBlock(BlockTypeBranch, int(node.StartPoint().Row)+1)
	switchBlock.Statements = []string{"switch (" + condition + ")"}
	e.addBlock(switchBlock)

	if *currentBlock != nil {
		e.addEdge((*currentBlock).ID, switchBlock.ID, EdgeTypeUnconditional)
	}

	lastBlock := switchBlock

	if body != nil {
		for i := 0; i < int(body.ChildCount()); i++ {
			child := body.Child(i)
			if child == nil {
				continue
			}

			if child.Type() == "case_statement" || child.Type() == "labeled_statement" {
				caseBlock := e.newBlock(BlockTypeBranch, int(child.StartPoint().Row)+1)
				caseBlock.Statements = []string{e.nodeText(child)}
				e.addBlock(caseBlock)

				e.addEdge(switchBlock.ID, caseBlock.ID, EdgeTypeUnconditional)

				for j := 0; j < int(child.ChildCount()); j++ {
					stmt := child.Child(j)
					if stmt != nil && stmt.Type() != "case" && stmt.Type() != "default" {
						caseBodyBlock := e.newBlock(BlockTypePlain, int(stmt.StartPoint().Row)+1)
						e.addBlock(caseBodyBlock)
						e.addEdge(caseBlock.ID, caseBodyBlock.ID, EdgeTypeUnconditional)

						if stmt.Type() == "compound_statement" {
							e.processBlock(stmt, &caseBodyBlock)
						} else {
							stmtText := strings.TrimSpace(e.nodeText(stmt))
							if stmtText != "" {
								caseBodyBlock.Statements = []string{stmtText}
								caseBodyBlock.EndLine = int(stmt.EndPoint().Row) + 1
							}
						}
						lastBlock = caseBodyBlock
						break
					}
				}
			}
		}
	}

	*currentBlock = lastBlock
}

func (e *cppCFGExtractor) processForStatement(node *sitter.Node, currentBlock **CFGBlock) {
	if node == nil {
		return
	}

	var init, condition, update string
	var body *sitter.Node

	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		if child == nil {
			continue
		}
		switch child.Type() {
		case "init":
			init = e.nodeText(child)
		case "condition":
			condition = e.nodeText(child)
		case "update":
			update = e.nodeText(child)
		case "body":
			body = child
		}
	}

	header := "for (" + init + "; " + condition + "; " + update + ")"
	if node.Type() == "for_range_loop" {
		header = "for (" + e.nodeText(node) + ")"
	}

	loopHeader := e.newBlock(BlockTypeBranch, int(node.StartPoint().Row)+1)
	loopHeader.Statements = []string{header}
	e.addBlock(loopHeader)

	if *currentBlock != nil {
		e.addEdge((*currentBlock).ID, loopHeader.ID, EdgeTypeUnconditional)
	}

	loopBody := e.newBlock(BlockTypeLoopBody, int(node.StartPoint().Row)+1)
	e.addBlock(loopBody)
	e.addEdge(loopHeader.ID, loopBody.ID, EdgeTypeTrue)

	e.processBlock(body, &loopBody)

	e.addEdge(loopBody.ID, loopHeader.ID, EdgeTypeBackEdge)

	*currentBlock = loopHeader
}

func (e *cppCFGExtractor) processWhileStatement(node *sitter.Node, currentBlock **CFGBlock) {
	if node == nil {
		return
	}

	var condition string
	var body *sitter.Node

	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		if child == nil {
			continue
		}
		switch child.Type() {
		case "condition":
			condition = e.nodeText(child)
		case "body":
			body = child
		}
	}

	loopHeader := e.newBlock(BlockTypeBranch, int(node.StartPoint().Row)+1)
	loopHeader.Statements = []string{"while (" + condition + ")"}
	e.addBlock(loopHeader)

	if *currentBlock != nil {
		e.addEdge((*currentBlock).ID, loopHeader.ID, EdgeTypeUnconditional)
	}

	loopBody := e.newBlock(BlockTypeLoopBody, int(node.StartPoint().Row)+1)
	e.addBlock(loopBody)
	e.addEdge(loopHeader.ID, loopBody.ID, EdgeTypeTrue)

	e.processBlock(body, &loopBody)

	e.addEdge(loopBody.ID, loopHeader.ID, EdgeTypeBackEdge)

	*currentBlock = loopHeader
}

func (e *cppCFGExtractor) processDoWhileStatement(node *sitter.Node, currentBlock **CFGBlock) {
	if node == nil {
		return
	}

	var condition string
	var body *sitter.Node

	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		if child == nil {
			continue
		}
		switch child.Type() {
		case "condition":
			condition = e.nodeText(child)
		case "body":
			body = child
		}
	}

	loopBody := e.newBlock(BlockTypeLoopBody, int(node.StartPoint().Row)+1)
	e.addBlock(loopBody)

	if *currentBlock != nil {
		e.addEdge((*currentBlock).ID, loopBody.ID, EdgeTypeUnconditional)
	}

	e.processBlock(body, &loopBody)

	loopHeader := e.newBlock(BlockTypeBranch, int(node.StartPoint().Row)+1)
	loopHeader.Statements = []string{"do-while (" + condition + ")"}
	e.addBlock(loopHeader)

	e.addEdge(loopBody.ID, loopHeader.ID, EdgeTypeBackEdge)

	*currentBlock = loopHeader
}

func (e *cppCFGExtractor) processReturnStatement(node *sitter.Node, currentBlock **CFGBlock) {
	if node == nil || *currentBlock == nil {
		return
	}

	returnBlock := e.newBlock(BlockTypeReturn, int(node.StartPoint().Row)+1)
	returnBlock.Statements = []string{e.nodeText(node)}
	e.addBlock(returnBlock)

	e.addEdge((*currentBlock).ID, returnBlock.ID, EdgeTypeUnconditional)

	*currentBlock = returnBlock
}

func (e *cppCFGExtractor) processBreakStatement(node *sitter.Node, currentBlock **CFGBlock) {
	if node == nil || *currentBlock == nil {
		return
	}

	(*currentBlock).Statements = append((*currentBlock).Statements, e.nodeText(node))
	(*currentBlock).EndLine = int(node.EndPoint().Row) + 1

	e.addEdge((*currentBlock).ID, "", EdgeTypeBreak)
}

func (e *cppCFGExtractor) processContinueStatement(node *sitter.Node, currentBlock **CFGBlock) {
	if node == nil || *currentBlock == nil {
		return
	}

	(*currentBlock).Statements = append((*currentBlock).Statements, e.nodeText(node))
	(*currentBlock).EndLine = int(node.EndPoint().Row) + 1

	e.addEdge((*currentBlock).ID, "", EdgeTypeContinue)
}

func (e *cppCFGExtractor) processGotoStatement(node *sitter.Node, currentBlock **CFGBlock) {
	if node == nil || *currentBlock == nil {
		return
	}

	(*currentBlock).Statements = append((*currentBlock).Statements, e.nodeText(node))
	(*currentBlock).EndLine = int(node.EndPoint().Row) + 1

	e.addEdge((*currentBlock).ID, "", EdgeTypeUnconditional)
}

func (e *cppCFGExtractor) processCaseStatement(node *sitter.Node, currentBlock **CFGBlock) {
	if node == nil {
		return
	}

	if *currentBlock != nil {
		(*currentBlock).Statements = append((*currentBlock).Statements, e.nodeText(node))
		(*currentBlock).EndLine = int(node.EndPoint().Row) + 1
	}
}

// processTryStatement treats the try body as a plain fallthrough block and
// each catch clause as an alternative branch off it, mirroring how
// processIfStatement links a branch block to its consequent/alternative.
func (e *cppCFGExtractor) processTryStatement(node *sitter.Node, currentBlock **CFGBlock) {
	if node == nil {
		return
	}

	tryBlock := e.newBlock(BlockTypePlain, int(node.StartPoint().Row)+1)
	tryBlock.Statements = []string{"try"}
	e.addBlock(tryBlock)

	if *currentBlock != nil {
		e.addEdge((*currentBlock).ID, tryBlock.ID, EdgeTypeUnconditional)
	}

	lastBlock := tryBlock

	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		if child == nil {
			continue
		}
		switch child.Type() {
		case "compound_statement":
			e.processBlock(child, &tryBlock)
			lastBlock = tryBlock
		case "catch_clause":
			catchBlock := e.newBlock(BlockTypePlain, int(child.StartPoint().Row)+1)
			catchBlock.Statements = []string{"catch"}
			e.addBlock(catchBlock)
			e.addEdge(tryBlock.ID, catchBlock.ID, EdgeTypeUnconditional)

			body := e.findBlock(child)
			if body != nil {
				e.processBlock(body, &catchBlock)
			}
			lastBlock = catchBlock
		}
	}

	*currentBlock = lastBlock
}

func (e *cppCFGExtractor) processThrowStatement(node *sitter.Node, currentBlock **CFGBlock) {
	if node == nil || *currentBlock == nil {
		return
	}

	throwBlock := e.newBlock(BlockTypeReturn, int(node.StartPoint().Row)+1)
	throwBlock.Statements = []string{e.nodeText(node)}
	e.addBlock(throwBlock)

	e.addEdge((*currentBlock).ID, throwBlock.ID, EdgeTypeUnconditional)

	*currentBlock = throwBlock
}

func (e *cppCFGExtractor) newBlock(blockType BlockType, line int) *CFGBlock {
	e.blockID++
	return &CFGBlock{
		ID:           fmt.Sprintf("block_%d", e.blockID),
		Type:         blockType,
		StartLine:    line,
		EndLine:      line,
		Statements:   make([]string, 0),
		Predecessors: make([]string, 0),
	}
}

func (e *cppCFGExtractor) addBlock(block *CFGBlock) {
	e.blocks[block.ID] = block
}

func (e *cppCFGExtractor) addEdge(sourceID, targetID string, edgeType EdgeType) {
	e.edges = append(e.edges, CFGEdge{SourceID: sourceID, TargetID: targetID, EdgeType: edgeType})
}

func (e *cppCFGExtractor) blocksToMap() map[string]CFGBlock {
	result := make(map[string]CFGBlock)
	for id, block := range e.blocks {
		result[id] = *block
	}
	return result
}

func (e *cppCFGExtractor) calculateCyclomaticComplexity(node *sitter.Node) int {
	if node == nil {
		return 1
	}
	return e.countDecisionPoints(node) + 1
}

func (e *cppCFGExtractor) countDecisionPoints(node *sitter.Node) int {
	if node == nil {
		return 0
	}

	count := 0

	switch node.Type() {
	case "if_statement":
		count++
	case "for_statement", "for_range_loop":
		count++
	case "while_statement":
		count++
	case "do_statement":
		count++
	case "switch_statement":
		count += e.countSwitchCases(node)
	case "case_statement":
		count++
	case "catch_clause":
		count++
	case "&&", "||":
		count++
	case "conditional_expression":
		count++
	}

	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		if child != nil {
			count += e.countDecisionPoints(child)
		}
	}

	return count
}

func (e *cppCFGExtractor) countSwitchCases(node *sitter.Node) int {
	if node == nil {
		return 0
	}

	count := 0
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		if child != nil && (child.Type() == "case_statement" || child.Type() == "labeled_statement") {
			count++
		}
	}
	return count
}

func (e *cppCFGExtractor) findChildByType(node *sitter.Node, childType string) *sitter.Node {
	if node == nil {
		return nil
	}

	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		if child != nil && child.Type() == childType {
			return child
		}
	}

	return nil
}

func (e *cppCFGExtractor) nodeText(node *sitter.Node) string {
	if node == nil {
		return ""
	}
	start := node.StartByte()
	end := node.EndByte()
	if start >= uint32(len(e.content)) || end > uint32(len(e.content)) {
		return ""
	}
	return string(e.content[start:end])
}
